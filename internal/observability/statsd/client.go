// Package statsd emits portal metrics using the StatsD line protocol over UDP.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink describes the metrics the portal emits.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Noop discards every metric. It is the default sink when metrics are disabled.
type Noop struct{}

func (Noop) Count(string, int64, map[string]string)         {}
func (Noop) Timing(string, time.Duration, map[string]string) {}

// OrNoop returns s, or Noop when s is nil.
//
//nolint:ireturn // callers store the Sink interface.
func OrNoop(s Sink) Sink {
	if s == nil {
		return Noop{}
	}
	return s
}

// Config describes how to reach a StatsD-compatible collector.
type Config struct {
	Enabled bool
	Address string
	Prefix  string
	Tags    map[string]string
	Logger  *slog.Logger
}

// Client writes metrics to a UDP collector. It is safe for concurrent use.
type Client struct {
	prefix string
	tags   string
	logger *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

var (
	_ Sink = (*Client)(nil)
	_ Sink = Noop{}
)

// NewClient dials the collector. A disabled config yields a client that drops everything.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		tags:   formatTags(cfg.Tags),
		logger: logger,
	}

	addr := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || addr == "" {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

// Count increments a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.send(name, strconv.FormatInt(value, 10)+"|c", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	ms := float64(value) / float64(time.Millisecond)
	c.send(name, strconv.FormatFloat(ms, 'f', -1, 64)+"|ms", tags)
}

// Close releases the UDP connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) send(name, payload string, tags map[string]string) {
	if c == nil {
		return
	}
	line := c.line(name, payload, tags)
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "error", err)
	}
}

func (c *Client) line(name, payload string, tags map[string]string) string {
	name = strings.Trim(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"), ".")
	if name == "" {
		return ""
	}
	if c.prefix != "" {
		name = c.prefix + "." + name
	}

	tagStr := c.tags
	if local := formatTags(tags); local != "" {
		if tagStr == "" {
			tagStr = local
		} else {
			tagStr += "," + local
		}
	}
	if tagStr != "" {
		return name + ":" + payload + "|#" + tagStr
	}
	return name + ":" + payload
}

func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strings.TrimSpace(k) + ":" + strings.TrimSpace(tags[k])
	}
	return strings.Join(parts, ",")
}

// Recorder is an in-memory Sink for tests.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int64
	timing map[string]int
}

var _ Sink = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[string]int64), timing: make(map[string]int)}
}

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[recorderKey(name, tags)] += value
}

func (r *Recorder) Timing(name string, _ time.Duration, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timing[recorderKey(name, tags)]++
}

// Counter returns the accumulated value for name with the given tags.
func (r *Recorder) Counter(name string, tags map[string]string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[recorderKey(name, tags)]
}

// Timings returns how many timings were recorded for name with the given tags.
func (r *Recorder) Timings(name string, tags map[string]string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timing[recorderKey(name, tags)]
}

func recorderKey(name string, tags map[string]string) string {
	if t := formatTags(tags); t != "" {
		return name + "|" + t
	}
	return name
}
