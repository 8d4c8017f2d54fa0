package devauth

// Package devauth provides a simple, config-driven identity provider for local development.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/providerevents"
	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// DefaultSessionDuration is used when Config.SessionDuration is zero.
const DefaultSessionDuration = 8 * time.Hour

// errInvalidLogin is surfaced to the user verbatim.
var errInvalidLogin = errors.New("Invalid login credentials") //nolint:staticcheck // user-facing text

// dummyHash keeps the cost of a lookup miss equal to a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("portal-dev-auth"), bcrypt.MinCost)

var (
	_ ports.IdentityProvider = (*Provider)(nil)
	_ ports.SessionRefresher = (*Provider)(nil)
)

// User is an account known to the dev provider.
type User struct {
	SubjectID    string
	Email        string
	PasswordHash []byte
	Claims       map[string]any
}

// Config controls the dev auth provider behavior.
type Config struct {
	Users           []User
	SessionDuration time.Duration // default 8h when zero
	// Latency delays every sign-in, which is handy for exercising login timeouts.
	Latency time.Duration
	Logger  *slog.Logger
}

// Provider implements ports.IdentityProvider for local development.
// Sessions live in memory and are lost on restart.
type Provider struct {
	users    map[string]User
	duration time.Duration
	latency  time.Duration
	logger   *slog.Logger
	hub      *providerevents.Hub
	now      func() time.Time

	mu      sync.Mutex
	tokens  map[string]domainauth.Session
	current *domainauth.Session
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Users) == 0 {
		return nil, errors.New("dev auth: at least one user is required")
	}
	users := make(map[string]User, len(cfg.Users))
	for _, u := range cfg.Users {
		email := domainauth.NormalizeEmail(u.Email)
		if u.SubjectID == "" || email == "" {
			return nil, fmt.Errorf("dev auth: user %q needs a subject and an email", u.Email)
		}
		if len(u.PasswordHash) == 0 {
			return nil, fmt.Errorf("dev auth: user %s has no password", email)
		}
		if _, dup := users[email]; dup {
			return nil, fmt.Errorf("dev auth: duplicate user %s", email)
		}
		u.Email = email
		users[email] = u
	}

	dur := cfg.SessionDuration
	if dur == 0 {
		dur = DefaultSessionDuration
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		users:    users,
		duration: dur,
		latency:  cfg.Latency,
		logger:   logger.With("component", "devauth"),
		hub:      providerevents.NewHub(),
		now:      time.Now,
		tokens:   make(map[string]domainauth.Session),
	}, nil
}

// ParseUsers reads DEV_AUTH_USERS entries of the form "subject,email,password[,role]"
// separated by ";". A password that is already a bcrypt hash is used as is.
// The optional role is exposed as the user_metadata.role claim.
func ParseUsers(spec string) ([]User, error) {
	var users []User
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) < 3 || len(parts) > 4 {
			return nil, fmt.Errorf("dev auth user %q: want subject,email,password[,role]", entry)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		hash, err := passwordHash(parts[2])
		if err != nil {
			return nil, fmt.Errorf("dev auth user %s: %w", parts[1], err)
		}
		u := User{SubjectID: parts[0], Email: parts[1], PasswordHash: hash}
		if len(parts) == 4 && parts[3] != "" {
			u.Claims = map[string]any{"user_metadata": map[string]any{"role": parts[3]}}
		}
		users = append(users, u)
	}
	return users, nil
}

func passwordHash(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("empty password")
	}
	if _, err := bcrypt.Cost([]byte(password)); err == nil {
		return []byte(password), nil
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CurrentSession returns the in-memory session, or nil when signed out or expired.
func (p *Provider) CurrentSession(_ context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.Expired(p.now()) {
		return nil, nil
	}
	s := *p.current
	return &s, nil
}

// Resume restores a session issued earlier by this process.
func (p *Provider) Resume(_ context.Context, accessToken string) (*domainauth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.tokens[accessToken]
	if !ok {
		return nil, nil
	}
	if sess.Expired(p.now()) {
		delete(p.tokens, accessToken)
		return nil, nil
	}
	p.current = &sess
	out := sess
	return &out, nil
}

// SignInWithPassword checks the password against the configured bcrypt hash and
// starts a new session.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (domainauth.Session, error) {
	if p.latency > 0 {
		t := time.NewTimer(p.latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return domainauth.Session{}, fmt.Errorf("dev auth sign-in: %w", ctx.Err())
		case <-t.C:
		}
	}

	u, ok := p.users[domainauth.NormalizeEmail(email)]
	hash := dummyHash
	if ok {
		hash = u.PasswordHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		p.logger.InfoContext(ctx, "dev sign-in rejected")
		return domainauth.Session{}, domainauth.NewAuthError(domainauth.CodeInvalidCredentials, errInvalidLogin)
	}

	now := p.now()
	sess := domainauth.Session{
		SubjectID:    u.SubjectID,
		Email:        u.Email,
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    now.Add(p.duration),
		Claims:       cloneClaims(u.Claims),
	}

	p.mu.Lock()
	if p.current != nil {
		delete(p.tokens, p.current.AccessToken)
	}
	p.tokens[sess.AccessToken] = sess
	p.current = &sess
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "dev sign-in", "subject", sess.SubjectID)
	published := sess
	p.hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedIn, Session: &published})
	return sess, nil
}

// Refresh replaces the current session's tokens and extends its expiry.
func (p *Provider) Refresh(_ context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil, errors.New("dev auth refresh: not signed in")
	}
	sess := *p.current
	delete(p.tokens, sess.AccessToken)
	sess.AccessToken = uuid.NewString()
	sess.ExpiresAt = p.now().Add(p.duration)
	p.tokens[sess.AccessToken] = sess
	p.current = &sess
	p.mu.Unlock()

	published := sess
	p.hub.Publish(ports.SessionEvent{Kind: ports.SessionTokenRefreshed, Session: &published})
	return &sess, nil
}

// SignOut drops the current session. Signing out while signed out is a no-op.
func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	cur := p.current
	if cur != nil {
		delete(p.tokens, cur.AccessToken)
	}
	p.current = nil
	p.mu.Unlock()

	if cur != nil {
		p.hub.Publish(ports.SessionEvent{Kind: ports.SessionSignedOut})
	}
	return nil
}

// Subscribe registers fn for session transitions.
func (p *Provider) Subscribe(fn func(ports.SessionEvent)) ports.Subscription {
	return p.hub.Subscribe(fn)
}

func cloneClaims(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
