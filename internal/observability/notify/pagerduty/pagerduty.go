// Package pagerduty raises and resolves portal outage incidents through the
// PagerDuty Events API v2.
package pagerduty

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/notify"
)

// APIEndpoint is the Events API v2 ingest URL.
const APIEndpoint = "https://events.pagerduty.com/v2/enqueue"

// Config describes one PagerDuty integration.
type Config struct {
	// Endpoint overrides APIEndpoint.
	Endpoint   string
	RoutingKey string
	Source     string
	Component  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client implements notify.Sink for PagerDuty.
type Client struct {
	poster     *notify.Poster
	routingKey string
	source     string
	component  string
}

var _ notify.Sink = (*Client)(nil)

// NewClient requires a routing key.
func NewClient(cfg Config) (*Client, error) {
	key := strings.TrimSpace(cfg.RoutingKey)
	if key == "" {
		return nil, errors.New("pagerduty routing key is required")
	}
	endpoint := notify.Fallback(strings.TrimSpace(cfg.Endpoint), APIEndpoint)
	return &Client{
		poster:     notify.NewPoster("pagerduty api", endpoint, cfg.Client, cfg.Timeout, cfg.RetryLimit),
		routingKey: key,
		source:     notify.Fallback(strings.TrimSpace(cfg.Source), "campus-portal"),
		component:  notify.Fallback(strings.TrimSpace(cfg.Component), "auth-guard"),
	}, nil
}

// SendOutage triggers an incident, or resolves it when payload.Resolved is set.
// Both share the payload's dedup key so PagerDuty pairs them.
func (c *Client) SendOutage(ctx context.Context, payload notify.OutagePayload) error {
	return c.poster.PostJSON(ctx, c.buildEvent(payload))
}

func (c *Client) buildEvent(p notify.OutagePayload) map[string]any {
	event := map[string]any{
		"routing_key": c.routingKey,
		"dedup_key":   p.DedupKey(),
	}
	if p.Resolved {
		event["event_action"] = "resolve"
		return event
	}
	event["event_action"] = "trigger"

	at := p.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	details := make(map[string]any, len(p.Metadata)+4)
	for k, v := range p.Metadata {
		details[k] = v
	}
	// Fixed fields take precedence over metadata with the same key.
	details["state"] = p.State
	details["message"] = p.Message
	details["error"] = p.Error
	details["error_class"] = p.ErrorClass

	event["payload"] = map[string]any{
		"summary":        "Portal sign-in unavailable: " + notify.Fallback(p.Message, notify.Fallback(p.Component, "unknown")),
		"severity":       notify.Fallback(strings.ToLower(p.Severity), notify.SeverityCritical),
		"source":         c.source,
		"component":      c.component,
		"timestamp":      at.UTC().Format(time.RFC3339),
		"custom_details": details,
	}
	return event
}
