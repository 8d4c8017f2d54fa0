package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

// RouterServices holds what the portal router needs.
type RouterServices struct {
	Guard        Guard
	CookieDomain string
	Logger       *slog.Logger // optional
}

// NewRouter builds the portal's handler tree behind browser detection and CSRF
// protection. Logging and Recover are applied by the caller.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Guard == nil {
		return nil, errors.New("httpx: router requires a guard")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pages, err := NewPages(logger)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	sessions := &SessionBinding{CookieDomain: services.CookieDomain}
	auth := &AuthHandlers{
		Guard:        services.Guard,
		Sessions:     sessions,
		Pages:        pages,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}
	portal := &PortalHandlers{Guard: services.Guard, Sessions: sessions, Pages: pages}

	health := &HealthHandlers{Guard: services.Guard}
	for _, m := range []string{http.MethodGet, http.MethodHead} {
		mux.HandleFunc(m+" /healthz", health.Live)
		mux.HandleFunc(m+" /readyz", health.Ready)
	}

	registerAuthRoutes(mux, auth)
	registerPortalRoutes(mux, portal)

	var h http.Handler = mux
	h = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(h)
	h = BrowserDetection()(h)
	return h, nil
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET "+domainauth.LoginPath, h.LoginPage)
	mux.HandleFunc("POST "+domainauth.LoginPath, h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("POST /auth/retry", h.Retry)
	mux.HandleFunc("GET /api/identity", h.Identity)
}

func registerPortalRoutes(mux *http.ServeMux, h *PortalHandlers) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET "+domainauth.UnauthorizedPath, h.Unauthorized)

	dashboards := []struct {
		path  string
		title string
		roles []domainauth.Role
	}{
		{domainauth.AdminDashboardPath, "Admin dashboard", []domainauth.Role{domainauth.RoleAdmin}},
		{domainauth.FacultyDashboardPath, "Faculty dashboard", []domainauth.Role{domainauth.RoleFaculty}},
		{domainauth.StudentDashboardPath, "Student dashboard", []domainauth.Role{domainauth.RoleStudent}},
	}
	for _, d := range dashboards {
		mux.Handle("GET "+d.path, RequireRoles(h.Guard, h.Sessions, h.Pages, d.roles...)(h.Dashboard(d.title)))
	}
}
