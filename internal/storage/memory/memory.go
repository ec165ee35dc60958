// Package memory implements storage brokers on top of an in-process map.
// It backs the "memory" storage driver used for development and tests.
package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/storage"
)

// Broker stores records of one type. Safe for concurrent use.
type Broker[T domain.Entity] struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]T
}

// NewBroker creates an empty broker.
func NewBroker[T domain.Entity]() *Broker[T] {
	return &Broker[T]{rows: make(map[uuid.UUID]T)}
}

func (b *Broker[T]) Insert(ctx context.Context, record *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := (*record).Stamps().ID
	if _, ok := b.rows[id]; ok {
		return nil, fmt.Errorf("inserting %s: %w", id, storage.ErrDuplicateKey)
	}
	b.rows[id] = *record
	stored := *record
	return &stored, nil
}

// SelectAll enumerates a snapshot taken when enumeration starts, ordered by creation.
func (b *Broker[T]) SelectAll(context.Context) storage.Query[T] {
	return storage.NewQuery(func(ctx context.Context) iter.Seq2[*T, error] {
		return func(yield func(*T, error) bool) {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			for _, r := range b.snapshot() {
				if !yield(r, nil) {
					return
				}
			}
		}
	})
}

func (b *Broker[T]) snapshot() []*T {
	b.mu.RLock()
	out := make([]*T, 0, len(b.rows))
	for _, r := range b.rows {
		row := r
		out = append(out, &row)
	}
	b.mu.RUnlock()

	slices.SortFunc(out, func(x, y *T) int {
		sx, sy := (*x).Stamps(), (*y).Stamps()
		if c := sx.CreatedDate.Compare(sy.CreatedDate); c != 0 {
			return c
		}
		return slices.Compare(sx.ID[:], sy.ID[:])
	})
	return out
}

func (b *Broker[T]) SelectByID(ctx context.Context, id uuid.UUID) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.rows[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// Update is a compare-and-swap: it only succeeds when the incoming UpdatedDate is
// later than the stored one.
func (b *Broker[T]) Update(ctx context.Context, record *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	in := (*record).Stamps()
	current, ok := b.rows[in.ID]
	if !ok || !in.UpdatedDate.After(current.Stamps().UpdatedDate) {
		return nil, fmt.Errorf("updating %s: %w", in.ID, storage.ErrConcurrencyConflict)
	}
	b.rows[in.ID] = *record
	stored := *record
	return &stored, nil
}

func (b *Broker[T]) Delete(ctx context.Context, record *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := (*record).Stamps().ID
	current, ok := b.rows[id]
	if !ok {
		return nil, fmt.Errorf("deleting %s: %w", id, storage.ErrConcurrencyConflict)
	}
	delete(b.rows, id)
	return &current, nil
}

// Len reports the number of stored rows.
func (b *Broker[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows)
}

// NewBrokers returns an empty in-memory broker for every record type.
func NewBrokers() *storage.Brokers {
	return &storage.Brokers{
		Cars:           NewBroker[domain.Car](),
		CarTypes:       NewBroker[domain.CarType](),
		CarModels:      NewBroker[domain.CarModel](),
		Categories:     NewBroker[domain.Category](),
		OfferTypes:     NewBroker[domain.OfferType](),
		ServiceTypes:   NewBroker[domain.ServiceType](),
		Addresses:      NewBroker[domain.Address](),
		DriverLicenses: NewBroker[domain.DriverLicense](),
		Offers:         NewBroker[domain.Offer](),
		Penalties:      NewBroker[domain.Penalty](),
		Services:       NewBroker[domain.Service](),
		Users:          NewBroker[domain.User](),
	}
}
