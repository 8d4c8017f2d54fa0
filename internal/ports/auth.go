package ports

// Package ports defines interfaces (hexagonal ports) for session and role resolution.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

// SessionEventKind names a session transition reported by the identity provider.
type SessionEventKind string

const (
	SessionInitial        SessionEventKind = "INITIAL_SESSION"
	SessionSignedIn       SessionEventKind = "SIGNED_IN"
	SessionSignedOut      SessionEventKind = "SIGNED_OUT"
	SessionTokenRefreshed SessionEventKind = "TOKEN_REFRESHED"
	SessionUserUpdated    SessionEventKind = "USER_UPDATED"
)

// SessionEvent is delivered to session-change subscribers.
// Session is nil for sign-out.
type SessionEvent struct {
	Kind    SessionEventKind
	Session *domainauth.Session
}

// Subscription is a registered session-change handler.
// Unsubscribe is safe to call more than once; after it returns the handler is not invoked again.
type Subscription interface {
	Unsubscribe()
}

// IdentityProvider is the external identity provider that issues verified sessions.
type IdentityProvider interface {
	// CurrentSession returns the provider's local session, or nil when signed out.
	CurrentSession(ctx context.Context) (*domainauth.Session, error)

	// Resume rebuilds a session from a previously persisted access token.
	// It returns nil, nil when the provider rejects the token.
	Resume(ctx context.Context, accessToken string) (*domainauth.Session, error)

	// SignInWithPassword authenticates with email and password.
	// Rejected credentials are reported as domainauth.ErrInvalidCredentials.
	SignInWithPassword(ctx context.Context, email, password string) (domainauth.Session, error)

	// SignOut drops the provider's local session. Signing out while signed out is not an error.
	SignOut(ctx context.Context) error

	// Subscribe registers fn for session transitions.
	Subscribe(fn func(SessionEvent)) Subscription
}

// SessionRefresher is implemented by providers that can renew an expired
// local session with its refresh token.
type SessionRefresher interface {
	Refresh(ctx context.Context) (*domainauth.Session, error)
}

// TokenStore persists the current access token in a local key-value entry.
type TokenStore interface {
	Save(ctx context.Context, token string, expiresAt time.Time) error
	// Load returns "" when no token is stored.
	Load(ctx context.Context) (string, error)
	Delete(ctx context.Context) error
}

// AdminRule decides, without any network access, whether a session belongs to an administrator.
type AdminRule interface {
	Match(sess domainauth.Session) (domainauth.AdminRecord, bool)
}

// FacultyDirectory looks up faculty records by subject id.
// A missing record is nil, nil. Transport failures wrap domainauth.ErrStoreUnavailable.
type FacultyDirectory interface {
	FindBySubject(ctx context.Context, subjectID string) (*domainauth.FacultyRecord, error)
}

// StudentDirectory looks up student records by email.
// A missing record is nil, nil. Transport failures wrap domainauth.ErrStoreUnavailable.
type StudentDirectory interface {
	FindByEmail(ctx context.Context, email string) (*domainauth.StudentRecord, error)
}

// Navigator performs client-side navigation.
type Navigator interface {
	Navigate(ctx context.Context, path string)
}
