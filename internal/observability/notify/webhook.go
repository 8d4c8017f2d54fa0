package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response is quoted in the error.
const maxErrorBody = 2 << 10

// Poster sends JSON bodies to one HTTP endpoint, retrying failed attempts
// with a linear backoff of Backoff, 2*Backoff, and so on.
type Poster struct {
	Name    string // used in error messages, e.g. "slack"
	URL     string
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

// NewPoster returns a Poster with a client timing out after timeout (5s when unset).
func NewPoster(name, url string, client *http.Client, timeout time.Duration, retries int) *Poster {
	if client == nil {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Poster{
		Name:    name,
		URL:     url,
		Client:  client,
		Retries: max(retries, 0),
		Backoff: 200 * time.Millisecond,
	}
}

// PostJSON encodes v and delivers it, returning the last failure once retries
// run out or ctx ends.
func (p *Poster) PostJSON(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", p.Name, err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(time.Duration(attempt) * p.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-t.C:
			}
		}
		if lastErr = p.once(ctx, body); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (p *Poster) once(ctx context.Context, body []byte) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", p.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", p.Name, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close %s response: %w", p.Name, closeErr))
		}
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused.
		if _, drainErr := io.Copy(io.Discard, resp.Body); drainErr != nil {
			return fmt.Errorf("drain %s response: %w", p.Name, drainErr)
		}
		return nil
	}

	snippet, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if readErr != nil {
		return fmt.Errorf("%s %s: read body: %w", p.Name, resp.Status, readErr)
	}
	return fmt.Errorf("%s %s: %s", p.Name, resp.Status, strings.TrimSpace(string(snippet)))
}

// Fallback returns value, or fallback when value is blank.
func Fallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
