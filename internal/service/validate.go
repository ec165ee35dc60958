package service

import (
	"github.com/google/uuid"

	"github.com/mvaleed/carfleet/internal/domain"
	"github.com/mvaleed/carfleet/internal/validator"
)

func (f *Foundation[T]) fieldChecks(record *T) []validator.Check {
	s := (*record).Stamps()
	checks := []validator.Check{
		validator.Field("Id", validator.IsInvalidID(s.ID)),
	}
	if f.desc.Rules != nil {
		checks = append(checks, f.desc.Rules(record)...)
	}
	return append(checks,
		validator.Field("CreatedDate", validator.IsInvalidDate(s.CreatedDate)),
		validator.Field("UpdatedDate", validator.IsInvalidDate(s.UpdatedDate)),
	)
}

func (f *Foundation[T]) validateOnAdd(record *T) error {
	if record == nil {
		return &domain.NullEntityError{Entity: f.desc.Name}
	}
	s := (*record).Stamps()

	checks := append(f.fieldChecks(record),
		validator.Field("UpdatedDate", validator.IsNotSame(s.UpdatedDate, s.CreatedDate, "CreatedDate")),
		validator.Field("CreatedDate", validator.IsNotRecent(f.clock.Now(), s.CreatedDate)),
	)
	return validator.Validate(f.desc.Name, checks...)
}

func (f *Foundation[T]) validateOnModify(record *T) error {
	if record == nil {
		return &domain.NullEntityError{Entity: f.desc.Name}
	}
	s := (*record).Stamps()

	checks := append(f.fieldChecks(record),
		validator.Field("UpdatedDate", validator.IsSame(s.UpdatedDate, s.CreatedDate, "CreatedDate")),
		validator.Field("UpdatedDate", validator.IsNotRecent(f.clock.Now(), s.UpdatedDate)),
	)
	return validator.Validate(f.desc.Name, checks...)
}

// validateAgainstStorageOnModify treats the stored UpdatedDate as the optimistic lock
// token: an update must start from the stored CreatedDate and move UpdatedDate forward.
func (f *Foundation[T]) validateAgainstStorageOnModify(input, stored *T) error {
	if stored == nil {
		return &domain.NotFoundEntityError{Entity: f.desc.Name, Field: "id", Value: (*input).Stamps().ID.String()}
	}
	in, st := (*input).Stamps(), (*stored).Stamps()

	return validator.Validate(f.desc.Name,
		validator.Field("CreatedDate", validator.IsNotSame(in.CreatedDate, st.CreatedDate, "storage CreatedDate")),
		validator.Field("UpdatedDate", validator.IsNotAfter(in.UpdatedDate, st.UpdatedDate, "storage UpdatedDate")),
	)
}

func (f *Foundation[T]) validateID(id uuid.UUID) error {
	return validator.Validate(f.desc.Name, validator.Field("Id", validator.IsInvalidID(id)))
}

func (f *Foundation[T]) validateExists(maybe *T, id uuid.UUID) error {
	if maybe == nil {
		return &domain.NotFoundEntityError{Entity: f.desc.Name, Field: "id", Value: id.String()}
	}
	return nil
}
