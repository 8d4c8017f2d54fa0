package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// GuardState is the lifecycle state of the AuthGuard.
type GuardState string

const (
	StateUninitialized   GuardState = "uninitialized"
	StateInitializing    GuardState = "initializing"
	StateUnauthenticated GuardState = "unauthenticated"
	StateAuthenticated   GuardState = "authenticated"
	StateError           GuardState = "error"
)

var (
	// ErrGuardStarted is returned by Start when the guard already left the uninitialized state.
	ErrGuardStarted = errors.New("auth guard: already started")
	// ErrGuardClosed is returned by operations invoked after Close.
	ErrGuardClosed = errors.New("auth guard: closed")
)

// IdentitySnapshot is a read-only view of the guard at one point in time.
type IdentitySnapshot struct {
	State           GuardState           `json:"state"`
	Identity        *domainauth.Identity `json:"identity,omitempty"`
	IsInitializing  bool                 `json:"is_initializing"`
	IsAuthenticated bool                 `json:"is_authenticated"`
	Err             error                `json:"-"`
	Message         string               `json:"message,omitempty"`
}

// Render says what a guarded view should show.
type Render string

const (
	RenderLoading  Render = "loading"
	RenderError    Render = "error"
	RenderContent  Render = "content"
	RenderRedirect Render = "redirect"
)

// GateResult is the outcome of Gate for one navigation.
type GateResult struct {
	Render   Render
	Decision domainauth.Decision
	// Cached reports whether the decision came from the decision cache.
	Cached   bool
	Snapshot IdentitySnapshot
}

// AuthGuardOptions groups dependencies for AuthGuard.
type AuthGuardOptions struct {
	Sessions  *SessionManager
	Evaluator *RouteAccessEvaluator
	Navigator ports.Navigator
	Logger    *slog.Logger
}

// AuthGuard is the portal's authentication state machine. It restores the session at
// startup, follows provider session changes, and gates role-scoped views.
//
// Every background resolution carries the generation current when it started; a result
// is applied only if no newer transition happened meanwhile and the guard is still open.
type AuthGuard struct {
	sessions  *SessionManager
	evaluator *RouteAccessEvaluator
	navigator ports.Navigator
	logger    *slog.Logger

	mu            sync.Mutex
	state         GuardState
	identity      *domainauth.Identity
	err           error
	generation    uint64
	loginInFlight int
	closed        bool
	ctx           context.Context //nolint:containedctx // guard lifetime, cancelled by Close.
	cancel        context.CancelFunc
	sub           ports.Subscription
	watchers      map[int]chan IdentitySnapshot
	nextWatcher   int
	wg            sync.WaitGroup
}

// NewAuthGuard constructs a guard in the uninitialized state.
func NewAuthGuard(opts AuthGuardOptions) *AuthGuard {
	if opts.Sessions == nil {
		panic("service: AuthGuard requires a session manager")
	}
	evaluator := opts.Evaluator
	if evaluator == nil {
		evaluator = NewRouteAccessEvaluator(RouteAccessEvaluatorOptions{Logger: opts.Logger})
	}
	navigator := opts.Navigator
	if navigator == nil {
		navigator = discardNavigator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthGuard{
		sessions:  opts.Sessions,
		evaluator: evaluator,
		navigator: navigator,
		logger:    logger,
		state:     StateUninitialized,
		watchers:  make(map[int]chan IdentitySnapshot),
	}
}

type discardNavigator struct{}

func (discardNavigator) Navigate(context.Context, string) {}

// Start moves the guard to initializing, subscribes to session changes and restores
// the session in the background. ctx bounds the guard's lifetime together with Close.
func (g *AuthGuard) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGuardClosed
	}
	if g.state != StateUninitialized {
		g.mu.Unlock()
		return ErrGuardStarted
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.state = StateInitializing
	g.generation++
	gen := g.generation
	g.notifyLocked()
	g.mu.Unlock()

	sub, err := g.sessions.OnSessionChange(g.handleEvent)
	if err != nil {
		g.mu.Lock()
		g.setLocked(StateError, nil, fmt.Errorf("subscribe to session changes: %w", err))
		g.mu.Unlock()
		return fmt.Errorf("start auth guard: %w", err)
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		sub.Unsubscribe()
		return ErrGuardClosed
	}
	g.sub = sub
	g.wg.Add(1)
	g.mu.Unlock()

	go func() {
		defer g.wg.Done()
		g.restore(g.ctx, gen)
	}()
	return nil
}

// Close cancels in-flight work and releases the session subscription. Results that
// arrive afterwards are dropped. Close is idempotent.
func (g *AuthGuard) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	if g.cancel != nil {
		g.cancel()
	}
	sub := g.sub
	g.sub = nil
	for id, ch := range g.watchers {
		close(ch)
		delete(g.watchers, id)
	}
	g.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	g.wg.Wait()
}

// Snapshot returns the current identity state.
func (g *AuthGuard) Snapshot() IdentitySnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Watch streams snapshots, starting with the current one. A slow reader only ever
// sees the latest snapshot. The returned func stops the stream and closes the channel.
func (g *AuthGuard) Watch() (<-chan IdentitySnapshot, func()) {
	ch := make(chan IdentitySnapshot, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		close(ch)
		return ch, func() {}
	}
	id := g.nextWatcher
	g.nextWatcher++
	g.watchers[id] = ch
	ch <- g.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if c, ok := g.watchers[id]; ok {
				delete(g.watchers, id)
				close(c)
			}
		})
	}
}

// Login signs in, moves the guard to authenticated and navigates to the role's home page.
// On failure the guard is left unauthenticated and the *domainauth.AuthError is returned.
func (g *AuthGuard) Login(ctx context.Context, email, password string) (domainauth.Identity, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return domainauth.Identity{}, ErrGuardClosed
	}
	g.loginInFlight++
	g.mu.Unlock()

	id, err := g.sessions.Login(ctx, email, password)

	g.mu.Lock()
	g.loginInFlight--
	if g.closed {
		g.mu.Unlock()
		return domainauth.Identity{}, ErrGuardClosed
	}
	// The login outcome supersedes anything resolved while it was in flight.
	g.generation++
	g.evaluator.Reset()
	if err != nil {
		g.setLocked(StateUnauthenticated, nil, nil)
		g.mu.Unlock()
		return domainauth.Identity{}, err
	}
	g.setLocked(StateAuthenticated, &id, nil)
	g.mu.Unlock()

	g.navigator.Navigate(ctx, domainauth.HomePath(&id))
	return id, nil
}

// Logout signs out, moves the guard to unauthenticated and navigates to the login page.
// The guard transitions even if a cleanup step fails; the joined error is returned.
func (g *AuthGuard) Logout(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGuardClosed
	}
	g.mu.Unlock()

	err := g.sessions.Logout(ctx)

	g.mu.Lock()
	g.generation++
	g.evaluator.Reset()
	g.setLocked(StateUnauthenticated, nil, nil)
	g.mu.Unlock()

	g.navigator.Navigate(ctx, domainauth.LoginPath)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Retry re-runs session restore and role resolution from the error state.
// In any other state it does nothing.
func (g *AuthGuard) Retry(ctx context.Context) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrGuardClosed
	}
	if g.state != StateError {
		g.mu.Unlock()
		return nil
	}
	g.generation++
	gen := g.generation
	g.setLocked(StateInitializing, nil, nil)
	g.mu.Unlock()

	g.restore(ctx, gen)
	return nil
}

// Gate decides what a view guarded by allowed should render at path. While the guard is
// still resolving it never evaluates access. Redirects and denials navigate every time,
// including when the decision was cached.
func (g *AuthGuard) Gate(ctx context.Context, path string, allowed []domainauth.Role) GateResult {
	snap := g.Snapshot()
	switch snap.State {
	case StateUninitialized, StateInitializing:
		return GateResult{Render: RenderLoading, Snapshot: snap}
	case StateError:
		return GateResult{Render: RenderError, Snapshot: snap}
	case StateUnauthenticated, StateAuthenticated:
	}

	d, cached := g.evaluator.Evaluate(path, snap.Identity, allowed)
	if d.Allowed() {
		return GateResult{Render: RenderContent, Decision: d, Cached: cached, Snapshot: snap}
	}
	g.navigator.Navigate(ctx, d.RedirectTo)
	return GateResult{Render: RenderRedirect, Decision: d, Cached: cached, Snapshot: snap}
}

func (g *AuthGuard) handleEvent(ev ports.SessionEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if g.loginInFlight > 0 {
		g.logger.Debug("session event during login ignored", "event", ev.Kind)
		return
	}

	g.generation++
	if ev.Kind == ports.SessionSignedOut || ev.Session == nil {
		g.logger.Info("session ended", "event", ev.Kind)
		g.sessions.resolver.Reset()
		g.evaluator.Reset()
		g.setLocked(StateUnauthenticated, nil, nil)
		return
	}

	gen := g.generation
	sess := *ev.Session
	ctx := g.ctx
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.resolve(ctx, gen, sess)
	}()
}

func (g *AuthGuard) restore(ctx context.Context, gen uint64) {
	sess, err := g.sessions.RestoreSession(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "session restore failed", "error", err)
		g.apply(gen, StateError, nil, err)
		return
	}
	if sess == nil {
		g.apply(gen, StateUnauthenticated, nil, nil)
		return
	}
	g.resolve(ctx, gen, *sess)
}

func (g *AuthGuard) resolve(ctx context.Context, gen uint64, sess domainauth.Session) {
	id, err := g.sessions.Resolve(ctx, sess)
	if err != nil {
		// Never degrade an unresolved subject to "no role"; wait for a retry or the next event.
		g.logger.WarnContext(ctx, "role resolution failed", "subject", sess.SubjectID, "error", err)
		g.apply(gen, StateError, nil, err)
		return
	}
	g.apply(gen, StateAuthenticated, &id, nil)
}

// apply commits a background result if it is still current.
func (g *AuthGuard) apply(gen uint64, state GuardState, id *domainauth.Identity, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || gen != g.generation {
		g.logger.Debug("discarding superseded resolution result", "state", state)
		return
	}
	g.setLocked(state, id, err)
}

func (g *AuthGuard) setLocked(state GuardState, id *domainauth.Identity, err error) {
	if subjectOf(g.identity) != subjectOf(id) {
		g.evaluator.Reset()
	}
	prev := g.state
	g.state = state
	g.identity = id
	g.err = err
	if prev != state {
		attrs := []any{"from", prev, "to", state}
		if id != nil {
			attrs = append(attrs, "subject", id.SubjectID, "role", id.Role)
		}
		g.logger.Info("auth state changed", attrs...)
	}
	g.notifyLocked()
}

func (g *AuthGuard) notifyLocked() {
	if len(g.watchers) == 0 {
		return
	}
	snap := g.snapshotLocked()
	for _, ch := range g.watchers {
		select {
		case ch <- snap:
		default:
			// Replace the unread snapshot with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (g *AuthGuard) snapshotLocked() IdentitySnapshot {
	snap := IdentitySnapshot{
		State:           g.state,
		IsInitializing:  g.state == StateUninitialized || g.state == StateInitializing,
		IsAuthenticated: g.state == StateAuthenticated,
		Err:             g.err,
	}
	if g.identity != nil {
		id := *g.identity
		snap.Identity = &id
	}
	if g.err != nil {
		snap.Message = "We could not load your account. Please retry."
	}
	return snap
}

func subjectOf(id *domainauth.Identity) domainauth.IdentityKey {
	if id == nil {
		return domainauth.IdentityKey{}
	}
	return id.Key()
}
