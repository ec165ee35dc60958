// Package service contains the business logic layer.
// Foundation services validate records, delegate to a storage broker and translate every
// failure into the domain taxonomy. They do not know about HTTP, gRPC, or transport details.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/event"
	"github.com/mvaleed/carfleet/internal/storage"
	"github.com/mvaleed/carfleet/internal/validator"
)

// Descriptor is everything entity-specific about a foundation service.
type Descriptor[T domain.Entity] struct {
	// Name is the entity name used in messages, logs and events, e.g. "CarType".
	Name string

	// Rules lists the field checks beyond the Id and audit timestamps.
	Rules func(record *T) []validator.Check

	// Prepare runs on a copy of a valid record right before it is written. stored is the
	// current row on modify and nil on add.
	Prepare func(record, stored *T) error
}

// Deps are the collaborators shared by every foundation service.
type Deps struct {
	Clock     Clock
	Logger    *slog.Logger
	Publisher event.Publisher
	Metrics   *Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Publisher == nil {
		d.Publisher = event.NewNoopPublisher()
	}
	return d
}

// Foundation implements add, retrieve, modify and remove for one record type.
type Foundation[T domain.Entity] struct {
	desc      Descriptor[T]
	broker    storage.Broker[T]
	clock     Clock
	logger    *slog.Logger
	publisher event.Publisher
	tr        translator
}

func NewFoundation[T domain.Entity](desc Descriptor[T], broker storage.Broker[T], deps Deps) *Foundation[T] {
	deps = deps.withDefaults()
	logger := deps.Logger.With(slog.String("entity", desc.Name))
	return &Foundation[T]{
		desc:      desc,
		broker:    broker,
		clock:     deps.Clock,
		logger:    logger,
		publisher: deps.Publisher,
		tr:        translator{entity: desc.Name, logger: deps.Logger, metrics: deps.Metrics},
	}
}

// Name returns the entity name.
func (f *Foundation[T]) Name() string { return f.desc.Name }

// Add validates record and stores it. Audit timestamps are truncated to
// domain.TimestampPrecision first, so the returned record is what storage keeps.
func (f *Foundation[T]) Add(ctx context.Context, record *T) (*T, error) {
	stored, err := guard(ctx, f.tr, func() (*T, error) {
		record := domain.Normalize(record)
		if err := f.validateOnAdd(record); err != nil {
			return nil, err
		}
		in, err := f.prepare(record, nil)
		if err != nil {
			return nil, err
		}
		return f.broker.Insert(ctx, in)
	})
	if err != nil {
		return nil, err
	}

	f.publish(ctx, domain.RecordAddedEvent(f.desc.Name, (*stored).Stamps()))
	return stored, nil
}

// RetrieveAll returns a lazy query over every stored record. Failures raised while the
// query is enumerated are normalized with the bulk mapping.
func (f *Foundation[T]) RetrieveAll(ctx context.Context) storage.Query[T] {
	return f.broker.SelectAll(ctx).MapErr(func(err error) error {
		return f.tr.bulk(ctx, err)
	})
}

func (f *Foundation[T]) RetrieveByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return guard(ctx, f.tr, func() (*T, error) {
		if err := f.validateID(id); err != nil {
			return nil, err
		}
		maybe, err := f.broker.SelectByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := f.validateExists(maybe, id); err != nil {
			return nil, err
		}
		return maybe, nil
	})
}

// Modify replaces a stored record. The caller must send the stored CreatedDate and an
// UpdatedDate later than the stored one, both compared at domain.TimestampPrecision.
func (f *Foundation[T]) Modify(ctx context.Context, record *T) (*T, error) {
	updated, err := guard(ctx, f.tr, func() (*T, error) {
		record := domain.Normalize(record)
		if err := f.validateOnModify(record); err != nil {
			return nil, err
		}
		stored, err := f.broker.SelectByID(ctx, (*record).Stamps().ID)
		if err != nil {
			return nil, err
		}
		if err := f.validateAgainstStorageOnModify(record, stored); err != nil {
			return nil, err
		}
		in, err := f.prepare(record, stored)
		if err != nil {
			return nil, err
		}
		return f.broker.Update(ctx, in)
	})
	if err != nil {
		return nil, err
	}

	f.publish(ctx, domain.RecordModifiedEvent(f.desc.Name, (*updated).Stamps()))
	return updated, nil
}

// RemoveByID deletes a stored record and returns the deleted snapshot.
func (f *Foundation[T]) RemoveByID(ctx context.Context, id uuid.UUID) (*T, error) {
	removed, err := guard(ctx, f.tr, func() (*T, error) {
		if err := f.validateID(id); err != nil {
			return nil, err
		}
		maybe, err := f.broker.SelectByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := f.validateExists(maybe, id); err != nil {
			return nil, err
		}
		return f.broker.Delete(ctx, maybe)
	})
	if err != nil {
		return nil, err
	}

	f.publish(ctx, domain.RecordRemovedEvent(f.desc.Name, id))
	return removed, nil
}

func (f *Foundation[T]) prepare(record, stored *T) (*T, error) {
	in := *record
	if f.desc.Prepare != nil {
		if err := f.desc.Prepare(&in, stored); err != nil {
			return nil, err
		}
	}
	return &in, nil
}

// publish is best effort: the mutation already happened.
func (f *Foundation[T]) publish(ctx context.Context, e domain.Event) {
	if err := f.publisher.Publish(ctx, e); err != nil {
		f.logger.WarnContext(ctx, "publishing event failed",
			slog.String("event_type", e.Type),
			slog.String("error", err.Error()),
		)
	}
}
