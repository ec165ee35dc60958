// Package domain contains the fleet records and the failure taxonomy shared by every layer.
// These types have no knowledge of databases, HTTP, or any infrastructure concerns.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by errors.Is against any layer of a failure chain.
var (
	ErrNullEntity           = errors.New("null entity")
	ErrInvalidEntity        = errors.New("invalid entity")
	ErrNotFound             = errors.New("not found")
	ErrAlreadyExists        = errors.New("already exists")
	ErrLocked               = errors.New("locked")
	ErrFailedStorage        = errors.New("failed storage")
	ErrFailedService        = errors.New("failed service")
	ErrInvalidCredential    = errors.New("invalid credentials")
	ErrValidation           = errors.New("validation")
	ErrDependencyValidation = errors.New("dependency validation")
	ErrDependency           = errors.New("dependency")
	ErrService              = errors.New("service")
)

// ValidationError is a single field-level violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d validation errors", len(e))
}

// Fields groups messages by field name, keeping declaration order within a field.
func (e ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, v := range e {
		out[v.Field] = append(out[v.Field], v.Message)
	}
	return out
}

// NullEntityError reports an absent record.
type NullEntityError struct {
	Entity string
}

func (e *NullEntityError) Error() string { return e.Entity + " is null." }

func (e *NullEntityError) Is(target error) bool { return target == ErrNullEntity }

// InvalidEntityError carries every violated rule of one validation pass.
type InvalidEntityError struct {
	Entity     string
	Violations ValidationErrors
}

func (e *InvalidEntityError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("Invalid %s. Please fix the errors and try again.", lower(e.Entity))
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("Invalid %s. Please fix the errors and try again. (%s)", lower(e.Entity), strings.Join(parts, "; "))
}

func (e *InvalidEntityError) Is(target error) bool { return target == ErrInvalidEntity }

// Unwrap exposes the violation list to errors.As.
func (e *InvalidEntityError) Unwrap() error { return e.Violations }

// NotFoundEntityError reports a lookup that matched no stored row.
type NotFoundEntityError struct {
	Entity string
	Field  string
	Value  string
}

func (e *NotFoundEntityError) Error() string {
	return fmt.Sprintf("Couldn't find %s with %s: %s.", lower(e.Entity), e.Field, e.Value)
}

func (e *NotFoundEntityError) Is(target error) bool { return target == ErrNotFound }

// AlreadyExistsEntityError reports a unique-key conflict raised by storage.
type AlreadyExistsEntityError struct {
	Entity string
	Err    error
}

func (e *AlreadyExistsEntityError) Error() string {
	return e.Entity + " with the same id already exists."
}

func (e *AlreadyExistsEntityError) Is(target error) bool { return target == ErrAlreadyExists }

func (e *AlreadyExistsEntityError) Unwrap() error { return e.Err }

// LockedEntityError reports a concurrent-update conflict raised by storage.
type LockedEntityError struct {
	Entity string
	Err    error
}

func (e *LockedEntityError) Error() string {
	return e.Entity + " is locked, please try again."
}

func (e *LockedEntityError) Is(target error) bool { return target == ErrLocked }

func (e *LockedEntityError) Unwrap() error { return e.Err }

// FailedStorageError wraps any failure surfaced by the storage layer.
type FailedStorageError struct {
	Entity string
	Err    error
}

func (e *FailedStorageError) Error() string {
	return fmt.Sprintf("Failed %s storage error occurred, contact support.", lower(e.Entity))
}

func (e *FailedStorageError) Is(target error) bool { return target == ErrFailedStorage }

func (e *FailedStorageError) Unwrap() error { return e.Err }

// FailedServiceError wraps a failure nothing else could classify.
type FailedServiceError struct {
	Entity string
	Err    error
}

func (e *FailedServiceError) Error() string {
	return fmt.Sprintf("Failed %s service error occurred, please contact support.", lower(e.Entity))
}

func (e *FailedServiceError) Is(target error) bool { return target == ErrFailedService }

func (e *FailedServiceError) Unwrap() error { return e.Err }

// Kind is one of the four caller-visible failure categories.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindDependencyValidation
	KindDependency
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDependencyValidation:
		return "dependency_validation"
	case KindDependency:
		return "dependency"
	case KindService:
		return "service"
	}
	return "unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindDependencyValidation:
		return ErrDependencyValidation
	case KindDependency:
		return ErrDependency
	case KindService:
		return ErrService
	}
	return nil
}

// EntityError is the only failure type that crosses a foundation service boundary.
// Err holds exactly one inner kind, which in turn holds the original cause.
type EntityError struct {
	Kind     Kind
	Entity   string
	Critical bool
	Err      error
}

func (e *EntityError) Error() string {
	switch e.Kind {
	case KindValidation:
		return e.Entity + " validation error occurred, fix the errors and try again."
	case KindDependencyValidation:
		return e.Entity + " dependency validation error occurred, fix the errors and try again."
	case KindDependency:
		return e.Entity + " dependency error occurred, contact support."
	default:
		return e.Entity + " service error occurred, contact support."
	}
}

func (e *EntityError) Is(target error) bool { return target == e.Kind.sentinel() }

func (e *EntityError) Unwrap() error { return e.Err }

// Violations returns the aggregated field violations carried by a validation failure, if any.
func Violations(err error) ValidationErrors {
	var invalid *InvalidEntityError
	if errors.As(err, &invalid) {
		return invalid.Violations
	}
	return nil
}

func lower(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte(' ')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
