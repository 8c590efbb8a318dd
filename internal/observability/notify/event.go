package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityInfo     = "info"
)

// Event kinds emitted by the application.
const (
	// KindContactReceived fires when the public contact form stores a
	// new message.
	KindContactReceived = "contact.received"
	// KindAuthBackendDown fires when the hosted session backend becomes
	// unreachable and the refresh loop gives up.
	KindAuthBackendDown = "auth.backend_down"
)

// Event captures the canonical data we emit for outbound notifications.
type Event struct {
	Kind       string
	Severity   string
	Summary    string
	Detail     string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming events.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, event Event) error

// Send implements the Sink interface.
func (f SinkFunc) Send(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}
