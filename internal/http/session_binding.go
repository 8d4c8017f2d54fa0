package httpx

import (
	"crypto/subtle"
	"net/http"
	"sync"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

const (
	sessionCookieName = "portal_session"
	sessionTokenBytes = 32
)

// SessionBinding ties the guard's one session to the client that signed in.
// Each successful login mints a new portal_session cookie and replaces the previous
// binding; a request whose cookie does not match is served as anonymous.
// A nil *SessionBinding binds nobody.
type SessionBinding struct {
	CookieDomain string

	mu      sync.Mutex
	token   string
	subject domainauth.IdentityKey
}

// Bind issues a session cookie for id and makes it the only one the guard answers to.
func (b *SessionBinding) Bind(w http.ResponseWriter, r *http.Request, id domainauth.Identity) error {
	token, err := randomToken(sessionTokenBytes)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.token = token
	b.subject = id.Key()
	b.mu.Unlock()

	b.setCookie(w, r, token, 0)
	return nil
}

// Holds reports whether r carries the current session cookie and snap still belongs
// to the subject that signed in. While the guard is restoring or failing there is no
// identity to compare, so the cookie alone decides.
func (b *SessionBinding) Holds(r *http.Request, snap service.IdentitySnapshot) bool {
	if b == nil {
		return false
	}
	got := cookieValue(r, sessionCookieName)
	if got == "" {
		return false
	}
	b.mu.Lock()
	token, subject := b.token, b.subject
	b.mu.Unlock()
	if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
		return false
	}
	return snap.Identity == nil || snap.Identity.Key() == subject
}

// Vacant reports whether no client holds the session, as after a restart.
func (b *SessionBinding) Vacant() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token == ""
}

// View returns snap for the session holder and an anonymous snapshot for anyone else.
func (b *SessionBinding) View(r *http.Request, snap service.IdentitySnapshot) service.IdentitySnapshot {
	if b.Holds(r, snap) {
		return snap
	}
	return anonymousSnapshot()
}

// Release forgets the binding held by r, if any, and expires the caller's cookie.
func (b *SessionBinding) Release(w http.ResponseWriter, r *http.Request) {
	if b == nil {
		return
	}
	got := cookieValue(r, sessionCookieName)
	if got == "" {
		return
	}
	b.mu.Lock()
	if b.token != "" && subtle.ConstantTimeCompare([]byte(got), []byte(b.token)) == 1 {
		b.token = ""
		b.subject = domainauth.IdentityKey{}
	}
	b.mu.Unlock()
	b.setCookie(w, r, "", -1)
}

func (b *SessionBinding) setCookie(w http.ResponseWriter, r *http.Request, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   b.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func anonymousSnapshot() service.IdentitySnapshot {
	return service.IdentitySnapshot{State: service.StateUnauthenticated}
}
