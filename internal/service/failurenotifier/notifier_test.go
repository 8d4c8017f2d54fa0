package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/notify"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

type capture struct {
	mu       sync.Mutex
	received []notify.OutagePayload
}

func (c *capture) sink() notify.Sink {
	return notify.SinkFunc(func(_ context.Context, p notify.OutagePayload) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.received = append(c.received, p)
		return nil
	})
}

func (c *capture) payloads() []notify.OutagePayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.OutagePayload(nil), c.received...)
}

func TestServiceNotifyOutage(t *testing.T) {
	c := &capture{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "capture", Sink: c.sink()}, {Name: "nil"}}})
	require.True(t, svc.Enabled())

	svc.NotifyOutage(context.Background(), notify.OutagePayload{Component: GuardComponent})
	svc.NotifyOutage(context.Background(), notify.OutagePayload{Component: GuardComponent, Resolved: true})

	got := c.payloads()
	require.Len(t, got, 2)
	assert.Equal(t, notify.SeverityCritical, got[0].Severity)
	assert.Equal(t, notify.SeverityInfo, got[1].Severity)
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	assert.False(t, svc.Enabled())
	svc.NotifyOutage(context.Background(), notify.OutagePayload{})
}

func TestServiceLogsErrors(t *testing.T) {
	svc := NewService(Options{Sinks: []SinkRegistration{{
		Name: "fail",
		Sink: notify.SinkFunc(func(context.Context, notify.OutagePayload) error { return errors.New("boom") }),
	}}})
	assert.NotPanics(t, func() {
		svc.NotifyOutage(context.Background(), notify.OutagePayload{Component: GuardComponent})
	})
}

type fakeGuard struct {
	ch chan service.IdentitySnapshot
}

func (f *fakeGuard) Watch() (<-chan service.IdentitySnapshot, func()) { return f.ch, func() {} }

func TestWatchGuardTriggersOnceAndResolves(t *testing.T) {
	c := &capture{}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(Options{
		Sinks: []SinkRegistration{{Name: "capture", Sink: c.sink()}},
		Now:   func() time.Time { return at },
	})

	g := &fakeGuard{ch: make(chan service.IdentitySnapshot, 8)}
	outage := &domainauth.ResolutionError{Store: "students", Cause: domainauth.ErrStoreUnavailable}
	g.ch <- service.IdentitySnapshot{State: service.StateInitializing}
	g.ch <- service.IdentitySnapshot{State: service.StateError, Err: outage, Message: "Directory unavailable"}
	g.ch <- service.IdentitySnapshot{State: service.StateError, Err: outage}
	g.ch <- service.IdentitySnapshot{State: service.StateInitializing}
	g.ch <- service.IdentitySnapshot{State: service.StateUnauthenticated}
	g.ch <- service.IdentitySnapshot{State: service.StateAuthenticated}
	close(g.ch)

	svc.WatchGuard(context.Background(), g)

	got := c.payloads()
	require.Len(t, got, 2)
	assert.False(t, got[0].Resolved)
	assert.Equal(t, "error", got[0].State)
	assert.Equal(t, "Directory unavailable", got[0].Message)
	assert.Equal(t, map[string]string{"store": "students"}, got[0].Metadata)
	assert.NotEmpty(t, got[0].ErrorClass)
	assert.Equal(t, at, got[0].OccurredAt)
	assert.True(t, got[1].Resolved)
	assert.Equal(t, "portal:auth_guard", got[1].DedupKey())
}

func TestWatchGuardStopsOnContext(t *testing.T) {
	svc := NewService(Options{})
	g := &fakeGuard{ch: make(chan service.IdentitySnapshot)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.WatchGuard(ctx, g)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WatchGuard did not return after cancel")
	}
}
