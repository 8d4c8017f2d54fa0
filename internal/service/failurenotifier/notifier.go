// Package failurenotifier alerts operators when the auth guard cannot resolve roles.
package failurenotifier

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	obserrors "github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/errors"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/notify"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

// GuardComponent names the auth guard in outage payloads.
const GuardComponent = "auth_guard"

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the failure notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// Now is used for OccurredAt; defaults to time.Now.
	Now func() time.Time
}

// Service dispatches outage events to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
	now    func() time.Time
}

// SnapshotSource is the part of the auth guard the notifier watches.
type SnapshotSource interface {
	Watch() (<-chan service.IdentitySnapshot, func())
}

// NewService constructs a failure notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{Name: name, Sink: entry.Sink})
	}

	return &Service{
		logger: logger.With("component", "failure_notifier"),
		sinks:  sinks,
		now:    now,
	}
}

// NotifyOutage fans the payload out to all sinks and waits for them.
func (s *Service) NotifyOutage(ctx context.Context, payload notify.OutagePayload) {
	if len(s.sinks) == 0 {
		return
	}
	if payload.Severity == "" {
		payload.Severity = notify.SeverityCritical
		if payload.Resolved {
			payload.Severity = notify.SeverityInfo
		}
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendOutage(ctx, payload); err != nil {
				s.logger.ErrorContext(ctx, "failure notifier delivery error",
					"sink", entry.Name,
					"dedup_key", payload.DedupKey(),
					"resolved", payload.Resolved,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}

// WatchGuard raises an alert when the guard enters the error state and resolves it
// once the guard settles again. It returns when ctx is done or the guard closes.
func (s *Service) WatchGuard(ctx context.Context, guard SnapshotSource) {
	snaps, stop := guard.Watch()
	defer stop()

	down := false
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			switch snap.State {
			case service.StateError:
				if !down {
					down = true
					s.NotifyOutage(ctx, s.outagePayload(snap))
				}
			case service.StateAuthenticated, service.StateUnauthenticated:
				if down {
					down = false
					s.NotifyOutage(ctx, notify.OutagePayload{
						Component:  GuardComponent,
						Resolved:   true,
						State:      string(snap.State),
						Message:    "Role directories reachable again.",
						OccurredAt: s.now(),
					})
				}
			case service.StateUninitialized, service.StateInitializing:
			}
		}
	}
}

func (s *Service) outagePayload(snap service.IdentitySnapshot) notify.OutagePayload {
	p := notify.OutagePayload{
		Component:  GuardComponent,
		State:      string(snap.State),
		Message:    snap.Message,
		OccurredAt: s.now(),
	}
	if snap.Err != nil {
		p.Error = snap.Err.Error()
		p.ErrorClass = obserrors.Classify(snap.Err)
		var resErr *domainauth.ResolutionError
		if errors.As(snap.Err, &resErr) {
			p.Metadata = map[string]string{"store": resErr.Store}
		}
	}
	return p
}
