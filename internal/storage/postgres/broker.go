package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/storage"
)

// stampColumns are present in every table, first, in this order.
var stampColumns = []string{"id", "created_date", "updated_date"}

// table maps a record type onto a table. columns and values cover every field
// except the stamp and must line up one to one.
type table[T domain.Entity] struct {
	name    string
	columns []string
	values  func(*T) []any
}

func (t table[T]) selectList() string {
	return strings.Join(append(append([]string{}, stampColumns...), t.columns...), ", ")
}

// Broker implements storage.Broker for one table.
type Broker[T domain.Entity] struct {
	db    DBTX
	table table[T]
}

// NewBroker creates a broker over db.
func NewBroker[T domain.Entity](db DBTX, t table[T]) *Broker[T] {
	return &Broker[T]{db: db, table: t}
}

func (b *Broker[T]) collectOne(ctx context.Context, sql string, args ...any) (*T, error) {
	rows, err := b.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
}

// Insert stores a new record.
func (b *Broker[T]) Insert(ctx context.Context, record *T) (*T, error) {
	s := (*record).Stamps()
	args := append([]any{s.ID, s.CreatedDate, s.UpdatedDate}, b.table.values(record)...)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		b.table.name, b.table.selectList(), strings.Join(placeholders, ", "), b.table.selectList())

	stored, err := b.collectOne(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", b.table.name, classify(err))
	}
	return stored, nil
}

// SelectAll runs a fresh SELECT on every enumeration and streams rows as they arrive.
func (b *Broker[T]) SelectAll(context.Context) storage.Query[T] {
	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_date, id", b.table.selectList(), b.table.name)

	return storage.NewQuery(func(ctx context.Context) iter.Seq2[*T, error] {
		return func(yield func(*T, error) bool) {
			rows, err := b.db.Query(ctx, sql)
			if err != nil {
				yield(nil, fmt.Errorf("selecting from %s: %w", b.table.name, classify(err)))
				return
			}
			defer rows.Close()

			for rows.Next() {
				record, err := pgx.RowToAddrOfStructByName[T](rows)
				if err != nil {
					yield(nil, fmt.Errorf("scanning %s: %w", b.table.name, classify(err)))
					return
				}
				if !yield(record, nil) {
					return
				}
			}

			if err := rows.Err(); err != nil {
				yield(nil, fmt.Errorf("selecting from %s: %w", b.table.name, classify(err)))
			}
		}
	})
}

// SelectByID retrieves a record by its ID.
func (b *Broker[T]) SelectByID(ctx context.Context, id uuid.UUID) (*T, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", b.table.selectList(), b.table.name)

	record, err := b.collectOne(ctx, sql, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting %s from %s: %w", id, b.table.name, classify(err))
	}
	return record, nil
}

// Update saves changes with optimistic locking: the row is only written when its
// created_date matches and its stored updated_date is older than the incoming one.
func (b *Broker[T]) Update(ctx context.Context, record *T) (*T, error) {
	s := (*record).Stamps()
	args := append([]any{s.ID, s.CreatedDate, s.UpdatedDate}, b.table.values(record)...)

	sets := make([]string, 0, len(b.table.columns)+1)
	sets = append(sets, "updated_date = $3")
	for i, col := range b.table.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+4))
	}

	sql := fmt.Sprintf(`UPDATE %s SET %s
		WHERE id = $1 AND created_date = $2 AND updated_date < $3
		RETURNING %s`, b.table.name, strings.Join(sets, ", "), b.table.selectList())

	stored, err := b.collectOne(ctx, sql, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("updating %s in %s: %w", s.ID, b.table.name, storage.ErrConcurrencyConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("updating %s in %s: %w", s.ID, b.table.name, classify(err))
	}
	return stored, nil
}

// Delete removes the row and returns it as it was stored.
func (b *Broker[T]) Delete(ctx context.Context, record *T) (*T, error) {
	id := (*record).Stamps().ID
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING %s", b.table.name, b.table.selectList())

	removed, err := b.collectOne(ctx, sql, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("deleting %s from %s: %w", id, b.table.name, storage.ErrConcurrencyConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("deleting %s from %s: %w", id, b.table.name, classify(err))
	}
	return removed, nil
}
