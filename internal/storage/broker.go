// Package storage defines the broker contract the foundation services persist through.
//
// Brokers report failures by wrapping one of the sentinel errors below so callers can
// classify them with errors.Is without knowing the backing database.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mvaleed/carfleet/internal/domain"
)

// Failure classes every broker maps its native errors onto.
var (
	// ErrDuplicateKey is a unique-constraint violation.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConcurrencyConflict means another writer changed or removed the row first.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrUnavailable is a transient or connectivity failure of the store itself.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrFailed is any other failure reported by the store.
	ErrFailed = errors.New("storage failure")
)

// Broker is the CRUD contract for one record type.
type Broker[T any] interface {
	// Insert stores a new record and returns it as stored.
	Insert(ctx context.Context, record *T) (*T, error)

	// SelectAll returns a lazy query over every stored record. Nothing is read until
	// the query is enumerated.
	SelectAll(ctx context.Context) Query[T]

	// SelectByID returns nil, nil when no row has the id.
	SelectByID(ctx context.Context, id uuid.UUID) (*T, error)

	// Update replaces the stored record with the same id and returns it as stored.
	Update(ctx context.Context, record *T) (*T, error)

	// Delete removes the record and returns the removed snapshot.
	Delete(ctx context.Context, record *T) (*T, error)
}

// Pinger is implemented by brokers backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Brokers bundles one broker per record type.
type Brokers struct {
	Cars           Broker[domain.Car]
	CarTypes       Broker[domain.CarType]
	CarModels      Broker[domain.CarModel]
	Categories     Broker[domain.Category]
	OfferTypes     Broker[domain.OfferType]
	ServiceTypes   Broker[domain.ServiceType]
	Addresses      Broker[domain.Address]
	DriverLicenses Broker[domain.DriverLicense]
	Offers         Broker[domain.Offer]
	Penalties      Broker[domain.Penalty]
	Services       Broker[domain.Service]
	Users          Broker[domain.User]
}
