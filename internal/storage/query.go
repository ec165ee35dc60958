package storage

import (
	"cmp"
	"context"
	"iter"
	"slices"
)

// Source produces one pass over stored records. It is called again for every enumeration.
type Source[T any] func(ctx context.Context) iter.Seq2[*T, error]

// Query is a restartable, finite lazy sequence of records. Every method returns a new
// Query; the receiver is never modified.
type Query[T any] struct {
	source  Source[T]
	filters []func(*T) bool
	less    func(a, b *T) int
	skip    int
	take    int
	mapErr  []func(error) error
}

// NewQuery wraps a source.
func NewQuery[T any](source Source[T]) Query[T] {
	return Query[T]{source: source, take: -1}
}

// FromSlice builds a query over a fixed snapshot.
func FromSlice[T any](records []*T) Query[T] {
	return NewQuery(func(context.Context) iter.Seq2[*T, error] {
		return func(yield func(*T, error) bool) {
			for _, r := range records {
				if !yield(r, nil) {
					return
				}
			}
		}
	})
}

// Failed builds a query whose every enumeration yields err.
func Failed[T any](err error) Query[T] {
	return NewQuery(func(context.Context) iter.Seq2[*T, error] {
		return func(yield func(*T, error) bool) {
			yield(nil, err)
		}
	})
}

func (q Query[T]) clone() Query[T] {
	q.filters = slices.Clone(q.filters)
	q.mapErr = slices.Clone(q.mapErr)
	return q
}

// Where keeps records matching pred.
func (q Query[T]) Where(pred func(*T) bool) Query[T] {
	q = q.clone()
	q.filters = append(q.filters, pred)
	return q
}

// OrderBy sorts the result with a cmp-style comparison. Sorting materializes the
// filtered sequence once per enumeration.
func (q Query[T]) OrderBy(compare func(a, b *T) int) Query[T] {
	q = q.clone()
	q.less = compare
	return q
}

// Skip drops the first n records.
func (q Query[T]) Skip(n int) Query[T] {
	q = q.clone()
	q.skip = max(n, 0)
	return q
}

// Take limits the result to n records. A negative n removes the limit.
func (q Query[T]) Take(n int) Query[T] {
	q = q.clone()
	q.take = n
	return q
}

// MapErr rewrites errors raised while enumerating.
func (q Query[T]) MapErr(fn func(error) error) Query[T] {
	q = q.clone()
	q.mapErr = append(q.mapErr, fn)
	return q
}

func (q Query[T]) translate(err error) error {
	for _, fn := range q.mapErr {
		err = fn(err)
	}
	return err
}

func (q Query[T]) keep(r *T) bool {
	for _, f := range q.filters {
		if !f(r) {
			return false
		}
	}
	return true
}

// All enumerates the query. Enumeration stops at the first error.
func (q Query[T]) All(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		if q.source == nil {
			return
		}

		records := q.filtered(ctx)
		if q.less != nil {
			var sorted []*T
			for r, err := range records {
				if err != nil {
					yield(nil, err)
					return
				}
				sorted = append(sorted, r)
			}
			slices.SortStableFunc(sorted, q.less)
			records = func(yield func(*T, error) bool) {
				for _, r := range sorted {
					if !yield(r, nil) {
						return
					}
				}
			}
		}

		skipped, taken := 0, 0
		for r, err := range records {
			if err != nil {
				yield(nil, err)
				return
			}
			if skipped < q.skip {
				skipped++
				continue
			}
			if q.take >= 0 && taken >= q.take {
				return
			}
			taken++
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (q Query[T]) filtered(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for r, err := range q.source(ctx) {
			if err != nil {
				yield(nil, q.translate(err))
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, q.translate(err))
				return
			}
			if !q.keep(r) {
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Collect materializes the query.
func (q Query[T]) Collect(ctx context.Context) ([]*T, error) {
	var out []*T
	for r, err := range q.All(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// First returns the first record, or nil when the query is empty.
func (q Query[T]) First(ctx context.Context) (*T, error) {
	for r, err := range q.Take(1).All(ctx) {
		return r, err
	}
	return nil, nil
}

// By adapts a key extractor into an OrderBy comparison.
func By[T any, K cmp.Ordered](key func(*T) K) func(a, b *T) int {
	return func(a, b *T) int { return cmp.Compare(key(a), key(b)) }
}
