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

// OutagePayload describes the auth guard entering or leaving its error state.
type OutagePayload struct {
	// Component is the failing part, e.g. "auth_guard".
	Component string
	// Resolved is set when the component has recovered.
	Resolved   bool
	State      string
	Message    string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// DedupKey groups the trigger and resolve events of one outage.
func (p OutagePayload) DedupKey() string {
	c := p.Component
	if c == "" {
		c = "unknown"
	}
	return "portal:" + c
}

// Sink describes a destination capable of consuming outage notifications.
type Sink interface {
	SendOutage(ctx context.Context, payload OutagePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload OutagePayload) error

// SendOutage implements the Sink interface.
func (f SinkFunc) SendOutage(ctx context.Context, payload OutagePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
