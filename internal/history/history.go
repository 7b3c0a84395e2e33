package history

import (
	"context"
	"time"

	"ppplink/internal/settings"
)

// EventType defines the kind of link lifecycle event.
type EventType string

const (
	EventStart EventType = "start"
	EventStop  EventType = "stop"
	EventFail  EventType = "fail"
)

// Event is an append-only audit record of one link lifecycle transition.
// It captures the settings snapshot the run was launched with so a failed
// link can be correlated with the parameters that produced it.
type Event struct {
	Type       EventType         `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	PID        int               `json:"pid"`
	Settings   settings.Settings `json:"settings"`
	Error      string            `json:"error,omitempty"`
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
	Close() error
}
