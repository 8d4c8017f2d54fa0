package httpx

import (
	"fmt"
	"net/http"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

// PortalHandlers serves the landing redirect, the role dashboards and the access
// denied page.
type PortalHandlers struct {
	Guard    Guard
	Sessions *SessionBinding
	Pages    *Pages
}

// Home sends the caller to the page that fits the current session.
// GET /.
func (h *PortalHandlers) Home(w http.ResponseWriter, r *http.Request) {
	snap := h.Sessions.View(r, h.Guard.Snapshot())
	switch snap.State {
	case service.StateUninitialized, service.StateInitializing:
		writeLoading(w, r, h.Pages)
	case service.StateError:
		writeGuardError(w, r, h.Pages, snap)
	case service.StateAuthenticated, service.StateUnauthenticated:
		http.Redirect(w, r, domainauth.HomePath(snap.Identity), http.StatusSeeOther)
	}
}

// Dashboard renders the dashboard for the identity RequireRoles admitted.
func (h *PortalHandlers) Dashboard(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		if !IsBrowserRequest(r) {
			WriteJSON(w, http.StatusOK, id)
			return
		}
		h.Pages.Render(w, r, http.StatusOK, pageDashboard, PageData{
			Title:    title,
			Identity: id,
			Details:  recordDetails(id),
		})
	}
}

// Unauthorized explains that the signed-in account has no portal access.
// GET /unauthorized.
func (h *PortalHandlers) Unauthorized(w http.ResponseWriter, r *http.Request) {
	snap := h.Sessions.View(r, h.Guard.Snapshot())
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: string(domainauth.CodeNoRole),
			Err:     fmt.Errorf("%s", domainauth.ErrNoRole.Message),
		})
		return
	}
	h.Pages.Render(w, r, http.StatusForbidden, pageUnauthorized, PageData{
		Title:    "Access denied",
		Identity: snap.Identity,
		Error:    domainauth.ErrNoRole.Message,
	})
}

func recordDetails(id *domainauth.Identity) []string {
	if id == nil {
		return nil
	}
	switch rec := id.Record.(type) {
	case domainauth.FacultyRecord:
		out := []string{"Department: " + orDash(rec.Department), "Designation: " + orDash(rec.Designation)}
		if rec.IsHOD {
			out = append(out, "Head of department")
		}
		return out
	case domainauth.StudentRecord:
		return []string{
			"Roll number: " + orDash(rec.RollNumber),
			"Department: " + orDash(rec.Department),
			fmt.Sprintf("Year %d, section %s", rec.Year, orDash(rec.Section)),
		}
	case domainauth.AdminRecord:
		return []string{"Administrator"}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
