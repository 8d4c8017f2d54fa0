// Package slack posts portal outage alerts to a Slack incoming webhook.
package slack

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/notify"
)

// Config describes one Slack webhook.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	PortalURL  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client implements notify.Sink for Slack.
type Client struct {
	poster    *notify.Poster
	channel   string
	username  string
	portalURL string
}

var _ notify.Sink = (*Client)(nil)

// NewClient requires a webhook URL.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}
	return &Client{
		poster:    notify.NewPoster("slack webhook", webhookURL, cfg.Client, cfg.Timeout, cfg.RetryLimit),
		channel:   strings.TrimSpace(cfg.Channel),
		username:  notify.Fallback(strings.TrimSpace(cfg.Username), "campus-portal"),
		portalURL: strings.TrimSpace(cfg.PortalURL),
	}, nil
}

// SendOutage posts one message per outage transition.
func (c *Client) SendOutage(ctx context.Context, payload notify.OutagePayload) error {
	return c.poster.PostJSON(ctx, c.formatMessage(payload))
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (c *Client) formatMessage(p notify.OutagePayload) map[string]any {
	title := "*Portal sign-in unavailable*"
	severity := notify.SeverityCritical
	if p.Resolved {
		title = "*Portal sign-in recovered*"
		severity = notify.SeverityInfo
	}
	if p.Severity != "" {
		severity = p.Severity
	}
	at := p.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	lines := []string{fmt.Sprintf("%s `%s`", title, p.DedupKey())}
	bullet := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, "• "+label+": "+value)
		}
	}
	bullet("Severity", severity)
	bullet("State", p.State)
	bullet("Message", mrkdwnEscaper.Replace(p.Message))
	bullet("Error class", p.ErrorClass)
	bullet("Error", mrkdwnEscaper.Replace(p.Error))
	if c.portalURL != "" {
		bullet("Portal", "<"+c.portalURL+">")
	}
	if len(p.Metadata) > 0 {
		lines = append(lines, "• Metadata:")
		for _, k := range slices.Sorted(maps.Keys(p.Metadata)) {
			lines = append(lines, "    • "+k+": "+p.Metadata[k])
		}
	}
	bullet("Timestamp", at.UTC().Format(time.RFC3339))

	msg := map[string]any{"text": strings.Join(lines, "\n"), "username": c.username}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}
