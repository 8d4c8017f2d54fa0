package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

// Guard is the part of service.AuthGuard the HTTP host drives.
type Guard interface {
	Snapshot() service.IdentitySnapshot
	Gate(ctx context.Context, path string, allowed []domainauth.Role) service.GateResult
	Login(ctx context.Context, email, password string) (domainauth.Identity, error)
	Logout(ctx context.Context) error
	Retry(ctx context.Context) error
}

var _ Guard = (*service.AuthGuard)(nil)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			}
			if loc := ww.Header().Get("Location"); loc != "" {
				attrs = append(attrs, slog.String("location", loc))
			}
			logger.Info("http", attrs...)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection records once per request whether the caller wants HTML or JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest reports whether the request should be answered with pages and
// redirects rather than JSON.
func IsBrowserRequest(r *http.Request) bool {
	if v, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return v
	}
	return isBrowserRequest(r)
}

// isBrowserRequest treats /api/ paths and JSON-only clients as API callers.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if isJSONBody(r) {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html") || !strings.Contains(accept, "application/json")
}

// RequireRoles gates next behind the guard. allowed may be empty, which admits any
// identity with a portal role. Only the client holding the session cookie is gated
// as the guard's identity; every other request is treated as signed out.
//
// What the caller receives follows the gate's render outcome:
//   - loading: 503 with Retry-After while the session is still being restored
//   - error: 503 with the retry screen (JSON for API callers)
//   - redirect: 303 to the guard's navigation target, or 401/403 JSON for API callers
//   - content: next runs with the identity in the request context
func RequireRoles(guard Guard, sessions *SessionBinding, pages *Pages, allowed ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.Holds(r, guard.Snapshot()) {
				rejectAnonymous(w, r)
				return
			}
			ctx, nav := WithNavigation(r.Context())
			res := guard.Gate(ctx, r.URL.Path, allowed)
			if !sessions.Holds(r, res.Snapshot) {
				// The session changed hands between the two reads.
				rejectAnonymous(w, r)
				return
			}

			switch res.Render {
			case service.RenderContent:
				ctx = SetIdentityInContext(ctx, res.Snapshot.Identity)
				next.ServeHTTP(w, r.WithContext(ctx))
			case service.RenderLoading:
				writeLoading(w, r, pages)
			case service.RenderError:
				writeGuardError(w, r, pages, res.Snapshot)
			case service.RenderRedirect:
				target := nav.Target()
				if target == "" {
					target = res.Decision.RedirectTo
				}
				rejectOrRedirect(w, r, res, target)
			}
		})
	}
}

func rejectAnonymous(w http.ResponseWriter, r *http.Request) {
	rejectOrRedirect(w, r, service.GateResult{
		Render:   service.RenderRedirect,
		Decision: domainauth.RedirectTo(domainauth.LoginPath),
		Snapshot: anonymousSnapshot(),
	}, domainauth.LoginPath)
}

const loadingRetryAfter = "1"

func writeLoading(w http.ResponseWriter, r *http.Request, pages *Pages) {
	w.Header().Set("Retry-After", loadingRetryAfter)
	if IsBrowserRequest(r) && pages != nil {
		pages.Render(w, r, http.StatusServiceUnavailable, pageLoading, PageData{Title: "Signing you in"})
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusServiceUnavailable,
		ErrCode: "initializing",
		Err:     errors.New("session is still being restored"),
	})
}

func writeGuardError(w http.ResponseWriter, r *http.Request, pages *Pages, snap service.IdentitySnapshot) {
	msg := snap.Message
	if msg == "" {
		msg = domainauth.ErrProviderUnavailable.Message
	}
	if IsBrowserRequest(r) && pages != nil {
		pages.Render(w, r, http.StatusServiceUnavailable, pageError, PageData{Title: "Something went wrong", Error: msg})
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusServiceUnavailable,
		ErrCode: string(domainauth.CodeUnavailable),
		Err:     errors.New(msg),
	})
}

func rejectOrRedirect(w http.ResponseWriter, r *http.Request, res service.GateResult, target string) {
	if IsBrowserRequest(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	w.Header().Set("Location", target)
	switch {
	case res.Snapshot.Identity == nil:
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
	case res.Decision.Outcome == domainauth.OutcomeDeny:
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: string(domainauth.CodeNoRole),
			Err:     errors.New(domainauth.ErrNoRole.Message),
		})
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "insufficient_permissions",
			Err:     errors.New("insufficient permissions"),
		})
	}
}
