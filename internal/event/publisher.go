// Package event publishes record lifecycle events.
//
// Foundation services emit one event per successful mutation. Publishing is best effort:
// a failed publish never fails the operation that produced the event.
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/mvaleed/carfleet/internal/domain"
)

// Publisher is the interface for publishing domain events.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

// LoggingPublisher implements Publisher by logging events at debug level.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "event published",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("entity", event.Entity),
		slog.String("record_id", event.RecordID.String()),
		slog.String("data", string(data)),
	)
	return nil
}

func (p *LoggingPublisher) Close() error {
	return nil
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) Publish(context.Context, domain.Event) error { return nil }

func (p *NoopPublisher) Close() error { return nil }

// Recorder keeps published events in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *Recorder) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}
