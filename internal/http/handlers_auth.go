package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

const (
	flashCookieName = "portal_flash"
	flashSignedOut  = "signed_out"
)

var flashMessages = map[string]string{
	flashSignedOut: "You have been signed out.",
}

// AuthHandlers serves sign-in, sign-out, retry and the identity snapshot.
// Sign-in binds the session to the caller; the other handlers act on the guard
// only for that caller.
type AuthHandlers struct {
	Guard        Guard
	Sessions     *SessionBinding
	Pages        *Pages
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Identity   domainauth.Identity `json:"identity"`
	RedirectTo string              `json:"redirect_to"`
}

// LoginPage renders the sign-in form. A signed-in user is sent to their home page.
// GET /login.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	snap := h.Sessions.View(r, h.Guard.Snapshot())
	if snap.IsAuthenticated && snap.Identity != nil {
		http.Redirect(w, r, domainauth.HomePath(snap.Identity), http.StatusSeeOther)
		return
	}
	h.Pages.Render(w, r, http.StatusOK, pageLogin, PageData{
		Title:  "Sign in",
		Notice: h.takeFlash(w, r),
	})
}

// Login signs in with email and password from a form or a JSON body.
// POST /login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	browser := IsBrowserRequest(r)

	var req loginRequest
	if isJSONBody(r) {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderLoginError(w, r, http.StatusBadRequest, req.Email, "Could not read the sign-in form.")
			return
		}
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	}
	req.Email = strings.TrimSpace(req.Email)

	if req.Email == "" || req.Password == "" {
		const msg = "Email and password are required."
		if browser {
			h.renderLoginError(w, r, http.StatusBadRequest, req.Email, msg)
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Err: errors.New(msg)})
		return
	}

	ctx, nav := WithNavigation(r.Context())
	id, err := h.Guard.Login(ctx, req.Email, req.Password)
	if err != nil {
		f := classifyAuthError(err)
		h.logger().InfoContext(r.Context(), "login failed", slog.String("code", f.Code), slog.Int("status", f.Status))
		if browser {
			h.renderLoginError(w, r, f.Status, req.Email, f.Message)
			return
		}
		WriteAuthError(w, err)
		return
	}
	if err := h.Sessions.Bind(w, r, id); err != nil {
		h.logger().ErrorContext(r.Context(), "session cookie not issued", slog.Any("error", err))
		h.writeFailure(w, r, err)
		return
	}

	target := nav.Target()
	if target == "" {
		target = domainauth.HomePath(&id)
	}
	if browser {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, loginResponse{Identity: id, RedirectTo: target})
}

func (h *AuthHandlers) renderLoginError(w http.ResponseWriter, r *http.Request, status int, email, msg string) {
	h.Pages.Render(w, r, status, pageLogin, PageData{Title: "Sign in", Email: email, Error: msg})
}

// Logout signs out. The guard always ends up unauthenticated, so cleanup failures
// are logged and the user is still sent to the login page. A caller that does not
// hold the session only has its cookie cleared.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, nav := WithNavigation(r.Context())
	if h.Sessions.Holds(r, h.Guard.Snapshot()) {
		err := h.Guard.Logout(ctx)
		if errors.Is(err, service.ErrGuardClosed) {
			h.writeFailure(w, r, err)
			return
		}
		if err != nil {
			h.logger().WarnContext(r.Context(), "logout cleanup failed", slog.Any("error", err))
		}
	}
	h.Sessions.Release(w, r)

	target := nav.Target()
	if target == "" {
		target = domainauth.LoginPath
	}
	if IsBrowserRequest(r) {
		h.setFlash(w, r, flashSignedOut)
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"redirect_to": target})
}

// Retry re-runs session restore after the guard entered the error state. Only the
// session holder may retry, or anyone while no client holds it.
// POST /auth/retry.
func (h *AuthHandlers) Retry(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Holds(r, h.Guard.Snapshot()) && !h.Sessions.Vacant() {
		rejectAnonymous(w, r)
		return
	}
	if err := h.Guard.Retry(r.Context()); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	if IsBrowserRequest(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, h.Sessions.View(r, h.Guard.Snapshot()))
}

// Identity returns the guard snapshot as the caller may see it.
// GET /api/identity.
func (h *AuthHandlers) Identity(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Sessions.View(r, h.Guard.Snapshot()))
}

func (h *AuthHandlers) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if IsBrowserRequest(r) {
		f := classifyAuthError(err)
		http.Error(w, f.Message, f.Status)
		return
	}
	WriteAuthError(w, err)
}

func (h *AuthHandlers) setFlash(w http.ResponseWriter, r *http.Request, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    key,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// takeFlash returns the pending flash message and clears its cookie.
func (h *AuthHandlers) takeFlash(w http.ResponseWriter, r *http.Request) string {
	key := cookieValue(r, flashCookieName)
	if key == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return flashMessages[key]
}
