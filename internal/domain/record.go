package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimestampPrecision is the finest resolution kept for audit timestamps. PostgreSQL
// timestamptz stores microseconds, so every record is normalized to it before validation.
const TimestampPrecision = time.Microsecond

// Stamp is the identity and audit header shared by every record.
// ID is assigned by the caller before creation and never changes afterwards.
type Stamp struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CreatedDate time.Time `json:"createdDate" db:"created_date"`
	UpdatedDate time.Time `json:"updatedDate" db:"updated_date"`
}

// Stamps returns the header; records get it by embedding Stamp.
func (s Stamp) Stamps() Stamp { return s }

// TruncateStamps drops the part of both audit timestamps finer than TimestampPrecision.
func (s *Stamp) TruncateStamps() {
	s.CreatedDate = s.CreatedDate.Truncate(TimestampPrecision)
	s.UpdatedDate = s.UpdatedDate.Truncate(TimestampPrecision)
}

// Entity is satisfied by every record type.
type Entity interface {
	Stamps() Stamp
}

// Normalize returns a copy of record with its audit timestamps truncated to
// TimestampPrecision. A nil record stays nil.
func Normalize[T Entity](record *T) *T {
	if record == nil {
		return nil
	}
	out := *record
	if s, ok := any(&out).(interface{ TruncateStamps() }); ok {
		s.TruncateStamps()
	}
	return &out
}

// NewStamp returns a header for a record about to be added at now.
func NewStamp(id uuid.UUID, now time.Time) Stamp {
	return Stamp{ID: id, CreatedDate: now, UpdatedDate: now}
}
