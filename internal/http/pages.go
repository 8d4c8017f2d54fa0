package httpx

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	pageLogin        = "login"
	pageDashboard    = "dashboard"
	pageUnauthorized = "unauthorized"
	pageLoading      = "loading"
	pageError        = "error"
)

var pageNames = []string{pageLogin, pageDashboard, pageUnauthorized, pageLoading, pageError}

// PageData is the view model shared by every portal page.
type PageData struct {
	Title    string
	Identity *domainauth.Identity
	Error    string
	Notice   string
	// Email pre-fills the login form after a failed attempt.
	Email   string
	Details []string

	CSRFField string
	CSRFToken string
}

// Pages renders the portal's HTML pages. Each page is the shared layout plus its own
// "content" block.
type Pages struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewPages parses the embedded templates.
func NewPages(logger *slog.Logger) (*Pages, error) {
	if logger == nil {
		logger = slog.Default()
	}
	layout, err := template.ParseFS(templateFS, "templates/layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	p := &Pages{pages: make(map[string]*template.Template, len(pageNames)), logger: logger}
	for _, name := range pageNames {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".tmpl"); err != nil {
			logger.Error("template parsing failed", slog.String("page", name), slog.Any("error", err))
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.pages[name] = t
	}
	return p, nil
}

// Render writes page with status. The CSRF fields are filled from the request.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	t, ok := p.pages[page]
	if !ok {
		p.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data.CSRFField = DefaultCSRFCookieName
	data.CSRFToken = GetCSRFToken(r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.Error("template execution failed", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		p.logger.Debug("failed to write page", slog.String("page", page), slog.Any("error", err))
	}
}
