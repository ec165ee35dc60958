// Package postgres implements the storage brokers using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/storage"
)

// DB wraps the PostgreSQL connection pool and provides access to brokers.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL database connection.
func New(ctx context.Context, connString string) (*DB, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes all connections in the pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping implements storage.Pinger.
func (db *DB) Ping(ctx context.Context) error {
	return classify(db.pool.Ping(ctx))
}

// Brokers returns every broker backed by this database.
func (db *DB) Brokers() *storage.Brokers {
	return &storage.Brokers{
		Cars:           NewBroker(db.pool, carTable),
		CarTypes:       NewBroker(db.pool, nameTable[domain.CarType]("car_types")),
		CarModels:      NewBroker(db.pool, nameTable[domain.CarModel]("car_models")),
		Categories:     NewBroker(db.pool, nameTable[domain.Category]("categories")),
		OfferTypes:     NewBroker(db.pool, nameTable[domain.OfferType]("offer_types")),
		ServiceTypes:   NewBroker(db.pool, nameTable[domain.ServiceType]("service_types")),
		Addresses:      NewBroker(db.pool, addressTable),
		DriverLicenses: NewBroker(db.pool, driverLicenseTable),
		Offers:         NewBroker(db.pool, offerTable),
		Penalties:      NewBroker(db.pool, penaltyTable),
		Services:       NewBroker(db.pool, serviceTable),
		Users:          NewBroker(db.pool, userTable),
	}
}

// DBTX is the interface satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify wraps a PostgreSQL error with the storage failure class it belongs to.
// Context cancellation is returned untouched so callers treat it as their own failure.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %w", storage.ErrDuplicateKey, err)
		case pgErr.Code == pgerrcode.SerializationFailure,
			pgErr.Code == pgerrcode.DeadlockDetected,
			pgErr.Code == pgerrcode.LockNotAvailable:
			return fmt.Errorf("%w: %w", storage.ErrConcurrencyConflict, err)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
		}
		return fmt.Errorf("%w: %w", storage.ErrFailed, err)
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	return fmt.Errorf("%w: %w", storage.ErrFailed, err)
}
