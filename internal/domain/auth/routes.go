package auth

import "strings"

// Well-known portal paths.
const (
	LoginPath            = "/login"
	UnauthorizedPath     = "/unauthorized"
	AdminDashboardPath   = "/admin/dashboard"
	FacultyDashboardPath = "/faculty/dashboard"
	StudentDashboardPath = "/student/dashboard"
)

// HomePath returns the canonical landing page for an identity.
// A nil identity is unauthenticated and lands on the login page.
func HomePath(id *Identity) string {
	if id == nil {
		return LoginPath
	}
	switch id.Role {
	case RoleAdmin:
		return AdminDashboardPath
	case RoleFaculty, RoleHOD:
		return FacultyDashboardPath
	case RoleStudent:
		return StudentDashboardPath
	default:
		return UnauthorizedPath
	}
}

// Outcome is the kind of a route decision.
type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomeRedirect Outcome = "redirect"
	OutcomeDeny     Outcome = "deny"
)

// Decision is the result of evaluating a navigation target.
// RedirectTo is set for redirects and for denials (the page that explains the denial).
type Decision struct {
	Outcome    Outcome `json:"outcome"`
	RedirectTo string  `json:"redirect_to,omitempty"`
}

// Allow is the decision that renders the requested content.
func Allow() Decision { return Decision{Outcome: OutcomeAllow} }

// RedirectTo is the decision that sends the subject elsewhere.
func RedirectTo(path string) Decision { return Decision{Outcome: OutcomeRedirect, RedirectTo: path} }

// Deny is a hard authorization failure; the subject is shown the unauthorized page.
func Deny() Decision { return Decision{Outcome: OutcomeDeny, RedirectTo: UnauthorizedPath} }

func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllow }

// CleanPath normalises a navigation target for comparisons: it drops query/fragment
// and trailing slashes and guarantees a leading slash.
func CleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
