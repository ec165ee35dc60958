package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/logging"
	"github.com/mvaleed/carfleet/internal/storage"
)

// translator normalizes every failure leaving a foundation service into exactly one
// *domain.EntityError and logs it once.
type translator struct {
	entity  string
	logger  *slog.Logger
	metrics *Metrics
}

// single applies the mapping for operations on one record.
func (t translator) single(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if normalized, ok := asEntityError(err); ok {
		return normalized
	}

	var out *domain.EntityError
	switch {
	case errors.Is(err, domain.ErrNullEntity),
		errors.Is(err, domain.ErrInvalidEntity),
		errors.Is(err, domain.ErrNotFound):
		out = t.wrap(domain.KindValidation, err)

	case errors.Is(err, storage.ErrDuplicateKey):
		out = t.wrap(domain.KindDependencyValidation, &domain.AlreadyExistsEntityError{Entity: t.entity, Err: err})

	case errors.Is(err, storage.ErrConcurrencyConflict):
		out = t.wrap(domain.KindDependencyValidation, &domain.LockedEntityError{Entity: t.entity, Err: err})

	case errors.Is(err, storage.ErrUnavailable):
		out = t.wrap(domain.KindDependency, &domain.FailedStorageError{Entity: t.entity, Err: err})
		out.Critical = true

	case errors.Is(err, storage.ErrFailed):
		out = t.wrap(domain.KindDependency, &domain.FailedStorageError{Entity: t.entity, Err: err})

	default:
		out = t.wrap(domain.KindService, &domain.FailedServiceError{Entity: t.entity, Err: err})
	}

	t.log(ctx, out)
	return out
}

// bulk applies the narrower mapping for queries over many records: only transient
// storage failures are told apart from everything else.
func (t translator) bulk(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if normalized, ok := asEntityError(err); ok {
		return normalized
	}

	var out *domain.EntityError
	if errors.Is(err, storage.ErrUnavailable) {
		out = t.wrap(domain.KindDependency, &domain.FailedStorageError{Entity: t.entity, Err: err})
		out.Critical = true
	} else {
		out = t.wrap(domain.KindService, &domain.FailedServiceError{Entity: t.entity, Err: err})
	}

	t.log(ctx, out)
	return out
}

func (t translator) wrap(kind domain.Kind, inner error) *domain.EntityError {
	return &domain.EntityError{Kind: kind, Entity: t.entity, Err: inner}
}

func (t translator) log(ctx context.Context, err *domain.EntityError) {
	level, severity := slog.LevelError, "error"
	if err.Critical {
		level, severity = logging.LevelCritical, "critical"
	}

	t.logger.Log(ctx, level, err.Error(),
		slog.String("entity", err.Entity),
		slog.String("kind", err.Kind.String()),
		slog.String("cause", err.Err.Error()),
	)
	t.metrics.failure(err.Entity, err.Kind.String(), severity)
}

func asEntityError(err error) (*domain.EntityError, bool) {
	var normalized *domain.EntityError
	if errors.As(err, &normalized) {
		return normalized, true
	}
	return nil, false
}

// guard runs fn and normalizes its failure.
func guard[T any](ctx context.Context, t translator, fn func() (*T, error)) (*T, error) {
	out, err := fn()
	if err != nil {
		return nil, t.single(ctx, err)
	}
	return out, nil
}
