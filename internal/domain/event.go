package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event that occurred.
// Events are immutable facts about something that happened.
type Event struct {
	ID        uuid.UUID
	Type      string
	Timestamp time.Time
	Entity    string
	RecordID  uuid.UUID
	Data      map[string]any
}

// Event type constants
const (
	EventRecordAdded    = "record.added"
	EventRecordModified = "record.modified"
	EventRecordRemoved  = "record.removed"
	EventUserSignedIn   = "user.signed_in"
)

// NewEvent creates a new domain event.
func NewEvent(eventType, entity string, recordID uuid.UUID, data map[string]any) Event {
	if data == nil {
		data = make(map[string]any)
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Entity:    entity,
		RecordID:  recordID,
		Data:      data,
	}
}

func RecordAddedEvent(entity string, s Stamp) Event {
	return NewEvent(EventRecordAdded, entity, s.ID, map[string]any{
		"created_date": s.CreatedDate,
	})
}

func RecordModifiedEvent(entity string, s Stamp) Event {
	return NewEvent(EventRecordModified, entity, s.ID, map[string]any{
		"updated_date": s.UpdatedDate,
	})
}

func RecordRemovedEvent(entity string, id uuid.UUID) Event {
	return NewEvent(EventRecordRemoved, entity, id, nil)
}

func UserSignedInEvent(u *User) Event {
	return NewEvent(EventUserSignedIn, "User", u.ID, map[string]any{
		"email": u.Email,
		"role":  string(u.Role),
	})
}
