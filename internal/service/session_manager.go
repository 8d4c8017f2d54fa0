package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/metrics"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/statsd"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

const (
	// DefaultLoginTimeout bounds how long Login waits for the identity provider.
	DefaultLoginTimeout = 10 * time.Second

	cleanupTimeout = 5 * time.Second
	// lateSignInWait bounds how long a login waits behind a timed-out one.
	lateSignInWait = 2 * cleanupTimeout
)

// ErrAlreadySubscribed is returned by OnSessionChange while another subscription is active.
var ErrAlreadySubscribed = errors.New("session manager: session-change subscription already active")

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Provider     ports.IdentityProvider
	Tokens       ports.TokenStore
	Resolver     *RoleResolver
	LoginTimeout time.Duration
	Logger       *slog.Logger
	Metrics      statsd.Sink
}

// SessionManager owns the provider session: it restores it at startup, signs in and out,
// and keeps the persisted access token in step with the provider.
type SessionManager struct {
	provider ports.IdentityProvider
	tokens   ports.TokenStore
	resolver *RoleResolver
	timeout  time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink

	mu  sync.Mutex
	sub *sessionSubscription

	// lateSignIns counts timed-out sign-ins whose result has not arrived yet.
	lateSignIns atomic.Int32
	cleanups    sync.WaitGroup
	// lateIdle is closed when the last pending late sign-in has been undone. Guarded by mu.
	lateIdle    chan struct{}
	latePending int
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	if opts.Provider == nil || opts.Tokens == nil || opts.Resolver == nil {
		panic("service: SessionManager requires a provider, token store and resolver")
	}
	timeout := opts.LoginTimeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		provider: opts.Provider,
		tokens:   opts.Tokens,
		resolver: opts.Resolver,
		timeout:  timeout,
		logger:   logger,
		metrics:  statsd.OrNoop(opts.Metrics),
	}
}

// RestoreSession returns the session to resume at startup, or nil when there is none.
// The provider's local session wins; otherwise the persisted access token is resumed.
// A rejected token is removed. Only transport failures are returned as errors.
func (m *SessionManager) RestoreSession(ctx context.Context) (*domainauth.Session, error) {
	sess, err := m.provider.CurrentSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	if sess != nil {
		if !sess.Expired(time.Now()) {
			return sess, nil
		}
		if fresh := m.refresh(ctx, sess); fresh != nil {
			return fresh, nil
		}
	}

	token, err := m.tokens.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	sess, err = m.provider.Resume(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	if sess == nil || sess.Expired(time.Now()) {
		m.logger.InfoContext(ctx, "persisted access token rejected; discarding")
		if err := m.tokens.Delete(ctx); err != nil {
			m.logger.WarnContext(ctx, "failed to delete rejected access token", "error", err)
		}
		return nil, nil
	}
	return sess, nil
}

// refresh renews an expired local session when the provider supports it and
// persists the new access token. It returns nil when the caller should fall
// back to the persisted token.
func (m *SessionManager) refresh(ctx context.Context, sess *domainauth.Session) *domainauth.Session {
	r, ok := m.provider.(ports.SessionRefresher)
	if !ok || sess.RefreshToken == "" {
		return nil
	}
	fresh, err := r.Refresh(ctx)
	if err != nil || fresh == nil {
		m.logger.InfoContext(ctx, "session refresh failed", "subject", sess.SubjectID, "error", err)
		return nil
	}
	if err := m.tokens.Save(ctx, fresh.AccessToken, fresh.ExpiresAt); err != nil {
		m.logger.WarnContext(ctx, "failed to persist refreshed access token", "error", err)
	}
	return fresh
}

// Resolve maps sess to an Identity through the role resolver.
func (m *SessionManager) Resolve(ctx context.Context, sess domainauth.Session) (domainauth.Identity, error) {
	return m.resolver.Resolve(ctx, sess)
}

// OnSessionChange registers handler for provider session transitions.
// Only one subscription may be active at a time.
func (m *SessionManager) OnSessionChange(handler func(ports.SessionEvent)) (ports.Subscription, error) {
	if handler == nil {
		return nil, errors.New("session manager: nil session-change handler")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sub != nil {
		return nil, ErrAlreadySubscribed
	}

	s := &sessionSubscription{manager: m}
	s.inner = m.provider.Subscribe(func(ev ports.SessionEvent) {
		if s.closed.Load() {
			return
		}
		if ev.Kind == ports.SessionSignedIn && m.lateSignIns.Load() > 0 {
			// Sign-in from a login that already timed out; it is about to be undone.
			m.logger.Debug("ignoring sign-in event from timed-out login")
			return
		}
		handler(ev)
	})
	m.sub = s
	return s, nil
}

type sessionSubscription struct {
	manager *SessionManager
	inner   ports.Subscription
	closed  atomic.Bool
	once    sync.Once
}

func (s *sessionSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.inner.Unsubscribe()
		s.manager.mu.Lock()
		if s.manager.sub == s {
			s.manager.sub = nil
		}
		s.manager.mu.Unlock()
	})
}

// Login signs in with email and password under the login timeout, persists the access
// token and resolves the role. Every failure leaves the provider signed out.
// Errors are *domainauth.AuthError values.
func (m *SessionManager) Login(ctx context.Context, email, password string) (domainauth.Identity, error) {
	start := time.Now()
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		m.recordLogin(domainauth.CodeInvalidCredentials, start)
		return domainauth.Identity{}, domainauth.NewAuthError(domainauth.CodeInvalidCredentials,
			errors.New("email and password are required"))
	}

	if err := m.awaitLateSignIns(ctx); err != nil {
		m.recordLogin(domainauth.CodeUnavailable, start)
		m.logger.InfoContext(ctx, "login failed", "email", redactEmail(email), "code", domainauth.CodeUnavailable, "error", err)
		return domainauth.Identity{}, err
	}

	m.resolver.Reset()

	id, err := m.login(ctx, email, password)
	if err != nil {
		var authErr *domainauth.AuthError
		code := domainauth.CodeUnavailable
		if errors.As(err, &authErr) {
			code = authErr.Code
		}
		m.recordLogin(code, start)
		m.logger.InfoContext(ctx, "login failed", "email", redactEmail(email), "code", code, "error", err)
		return domainauth.Identity{}, err
	}

	m.recordLogin("", start)
	m.logger.InfoContext(ctx, "login succeeded", "subject", id.SubjectID, "role", id.Role)
	return id, nil
}

func (m *SessionManager) login(ctx context.Context, email, password string) (domainauth.Identity, error) {
	sess, err := m.signIn(ctx, email, password)
	if err != nil {
		m.signOutQuietly(ctx)
		return domainauth.Identity{}, err
	}

	if err := m.tokens.Save(ctx, sess.AccessToken, sess.ExpiresAt); err != nil {
		m.abandon(ctx)
		return domainauth.Identity{}, domainauth.NewAuthError(domainauth.CodeUnavailable,
			fmt.Errorf("persist access token: %w", err))
	}

	id, err := m.resolver.Resolve(ctx, sess)
	if err != nil {
		m.abandon(ctx)
		return domainauth.Identity{}, domainauth.NewAuthError(domainauth.CodeUnavailable, err)
	}
	if !id.HasRole() {
		m.abandon(ctx)
		return domainauth.Identity{}, domainauth.NewAuthError(domainauth.CodeNoRole, nil)
	}
	return id, nil
}

type signInResult struct {
	sess domainauth.Session
	err  error
}

// signIn races the provider call against the login timeout. A result that arrives
// after the timeout is drained in the background and undone.
func (m *SessionManager) signIn(ctx context.Context, email, password string) (domainauth.Session, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan signInResult, 1)
	go func() {
		sess, err := m.provider.SignInWithPassword(callCtx, email, password)
		results <- signInResult{sess: sess, err: err}
	}()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case r := <-results:
		if r.err != nil {
			return domainauth.Session{}, classifySignInError(r.err)
		}
		if r.sess.SubjectID == "" || r.sess.AccessToken == "" {
			return domainauth.Session{}, domainauth.NewAuthError(domainauth.CodeUnavailable,
				errors.New("provider returned an incomplete session"))
		}
		return r.sess, nil
	case <-timer.C:
		m.discardLate(ctx, results)
		return domainauth.Session{}, domainauth.NewAuthError(domainauth.CodeTimeout,
			fmt.Errorf("identity provider did not respond within %s", m.timeout))
	case <-ctx.Done():
		m.discardLate(ctx, results)
		code := domainauth.CodeUnavailable
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = domainauth.CodeTimeout
		}
		return domainauth.Session{}, domainauth.NewAuthError(code, ctx.Err())
	}
}

func (m *SessionManager) discardLate(ctx context.Context, results <-chan signInResult) {
	m.lateSignIns.Add(1)
	m.cleanups.Add(1)
	m.mu.Lock()
	if m.latePending == 0 {
		m.lateIdle = make(chan struct{})
	}
	m.latePending++
	m.mu.Unlock()
	go func() {
		defer m.cleanups.Done()
		defer m.finishLate()
		r := <-results
		if r.err != nil {
			return
		}
		m.logger.Info("discarding sign-in that completed after the login timeout", "subject", r.sess.SubjectID)
		m.metrics.Count("login.late_result", 1, nil)
		m.signOutQuietly(ctx)
	}()
}

func (m *SessionManager) finishLate() {
	m.lateSignIns.Add(-1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latePending--
	if m.latePending == 0 {
		close(m.lateIdle)
		m.lateIdle = nil
	}
}

// awaitLateSignIns holds a new login back until every timed-out sign-in has been
// undone, so the forced sign-out cannot end the new session.
func (m *SessionManager) awaitLateSignIns(ctx context.Context) error {
	m.mu.Lock()
	idle := m.lateIdle
	m.mu.Unlock()
	if idle == nil {
		return nil
	}

	m.logger.DebugContext(ctx, "login waiting for a timed-out sign-in to be undone")
	timer := time.NewTimer(lateSignInWait)
	defer timer.Stop()
	select {
	case <-idle:
		return nil
	case <-timer.C:
		return domainauth.NewAuthError(domainauth.CodeUnavailable,
			errors.New("an earlier sign-in is still being undone"))
	case <-ctx.Done():
		return domainauth.NewAuthError(domainauth.CodeUnavailable, ctx.Err())
	}
}

// Wait blocks until background cleanups of timed-out logins have finished.
func (m *SessionManager) Wait() { m.cleanups.Wait() }

func classifySignInError(err error) error {
	var authErr *domainauth.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domainauth.NewAuthError(domainauth.CodeTimeout, err)
	}
	return domainauth.NewAuthError(domainauth.CodeUnavailable, err)
}

// abandon undoes a sign-in the provider accepted but the portal refused.
func (m *SessionManager) abandon(ctx context.Context) {
	cctx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := m.tokens.Delete(cctx); err != nil {
		m.logger.WarnContext(ctx, "failed to delete access token", "error", err)
	}
	m.signOutQuietly(ctx)
}

func (m *SessionManager) signOutQuietly(ctx context.Context) {
	cctx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := m.provider.SignOut(cctx); err != nil {
		m.logger.WarnContext(ctx, "forced provider sign-out failed", "error", err)
	}
}

// Logout clears cached identities, signs out of the provider and removes the persisted token.
// Every step runs; failures are joined.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.resolver.Reset()

	var errs []error
	if err := m.provider.SignOut(ctx); err != nil {
		errs = append(errs, fmt.Errorf("provider sign out: %w", err))
	}
	if err := m.tokens.Delete(ctx); err != nil {
		errs = append(errs, fmt.Errorf("delete access token: %w", err))
	}
	m.metrics.Count("logout", 1, nil)
	return errors.Join(errs...)
}

func (m *SessionManager) recordLogin(code domainauth.AuthErrorCode, start time.Time) {
	result := metrics.ResultSuccess
	if code != "" {
		result = string(code)
	}
	metrics.EmitLogin(m.metrics, metrics.LoginMetric{Result: result, Duration: time.Since(start)})
}

// cleanupContext detaches from the caller's cancellation so cleanup still runs after a timeout.
func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}
