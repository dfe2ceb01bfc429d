package events

import (
	"context"
	"time"
)

// Event is a fact about an HR record, published after the ledger write that caused it.
type Event interface {
	// EventID is stable for the same fact, so the bus can drop duplicate publishes.
	EventID() string
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	ID         string
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventID() string                 { return e.ID }
func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }

// Publisher sends events to the bus. Publishing is best-effort: ledger writes
// are the durability boundary, events only notify.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }
