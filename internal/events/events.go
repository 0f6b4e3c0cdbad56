package events

import (
	"context"
	"time"
)

// Event types published after a state change commits.
const (
	ServiceRequestCreated   = "service_request.created"
	ServiceRequestResponded = "service_request.responded"
	BookingCreated          = "booking.created"
	BookingStatusChanged    = "booking.status_changed"
	BookingPaid             = "booking.paid"
	BookingRefunded         = "booking.refunded"
	RiderOnboarded          = "rider.onboarded"
)

// Event is the envelope written to the broker.
type Event struct {
	Type       string            `json:"type"`
	Key        string            `json:"key"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// New builds an event keyed by the aggregate id.
func New(eventType, key string, attrs map[string]string) Event {
	return Event{
		Type:       eventType,
		Key:        key,
		Attributes: attrs,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func (NopPublisher) Close() error { return nil }
