package auth

// Package auth contains domain-level types for sessions, resolved identities and route decisions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents a portal authorization role.
// Keep string form for easy persistence, logging and decision-cache keys.
type Role string

const (
	RoleNone    Role = "none"
	RoleAdmin   Role = "admin"
	RoleHOD     Role = "hod"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

// AnonymousRoleKey is the role segment used for route decisions made without an identity.
const AnonymousRoleKey = "anonymous"

// ParseRole maps a string onto a known Role. Unknown values map to RoleNone.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleHOD:
		return RoleHOD
	case RoleFaculty:
		return RoleFaculty
	case RoleStudent:
		return RoleStudent
	default:
		return RoleNone
	}
}

// IsPortalRole reports whether r grants access to some role-scoped area.
func (r Role) IsPortalRole() bool {
	switch r {
	case RoleAdmin, RoleHOD, RoleFaculty, RoleStudent:
		return true
	default:
		return false
	}
}

// Satisfies reports whether r meets the required role.
// A head of department is faculty with extra duties, so hod satisfies faculty.
func (r Role) Satisfies(required Role) bool {
	if r == required {
		return r != RoleNone
	}
	return r == RoleHOD && required == RoleFaculty
}

// Session is the provider-issued proof of authentication, prior to role resolution.
// Sessions are replaced wholesale on refresh and never mutated.
type Session struct {
	SubjectID    string         `json:"subject_id"`
	Email        string         `json:"email"`
	AccessToken  string         `json:"-"`
	RefreshToken string         `json:"-"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Claims       map[string]any `json:"claims,omitempty"`
}

// Expired reports whether the session has passed its expiry. A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Key returns the identity-cache key for this session.
func (s Session) Key() IdentityKey {
	return IdentityKey{SubjectID: s.SubjectID, Email: NormalizeEmail(s.Email)}
}

// IdentityKey identifies a resolved identity by subject and email.
// It is a struct rather than a joined string so distinct pairs can never collide.
type IdentityKey struct {
	SubjectID string
	Email     string
}

func (k IdentityKey) String() string { return k.SubjectID + ":" + k.Email }

// NormalizeEmail lower-cases and trims an email address for comparisons and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleRecord is the role-specific data attached to an Identity.
// The set of implementations is closed: AdminRecord, FacultyRecord, StudentRecord and NoRoleRecord.
type RoleRecord interface {
	Kind() Role
	roleRecord()
}

// AdminRecord marks a subject recognised as an administrator without a store lookup.
type AdminRecord struct {
	// Source names the rule that matched, e.g. "email_domain" or "claims".
	Source string `json:"source"`
}

func (AdminRecord) Kind() Role  { return RoleAdmin }
func (AdminRecord) roleRecord() {}

// FacultyRecord is a row from the faculty directory.
type FacultyRecord struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
	IsHOD       bool   `json:"is_hod"`
}

func (r FacultyRecord) Kind() Role {
	if r.IsHOD {
		return RoleHOD
	}
	return RoleFaculty
}
func (FacultyRecord) roleRecord() {}

// StudentRecord is a row from the student directory.
type StudentRecord struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number,omitempty"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
	Section    string `json:"section,omitempty"`
}

func (StudentRecord) Kind() Role  { return RoleStudent }
func (StudentRecord) roleRecord() {}

// NoRoleRecord is the explicit negative result: the subject is authenticated but has no portal role.
type NoRoleRecord struct{}

func (NoRoleRecord) Kind() Role  { return RoleNone }
func (NoRoleRecord) roleRecord() {}

// Identity is the resolved, role-bearing representation of an authenticated subject.
// Identities are derived from a Session plus the backing stores and are treated as read-only.
type Identity struct {
	SubjectID    string     `json:"subject_id"`
	Email        string     `json:"email"`
	Role         Role       `json:"role"`
	DisplayName  string     `json:"display_name"`
	RoleRecordID string     `json:"role_record_id,omitempty"`
	Record       RoleRecord `json:"record,omitempty"`
}

// NewIdentity builds the Identity for sess from the record that resolved it.
// A nil record produces the explicit no-role identity.
func NewIdentity(sess Session, rec RoleRecord) Identity {
	if rec == nil {
		rec = NoRoleRecord{}
	}
	id := Identity{
		SubjectID: sess.SubjectID,
		Email:     NormalizeEmail(sess.Email),
		Role:      rec.Kind(),
		Record:    rec,
	}

	switch r := rec.(type) {
	case FacultyRecord:
		id.DisplayName = r.Name
		id.RoleRecordID = r.ID
	case StudentRecord:
		id.DisplayName = r.Name
		id.RoleRecordID = r.ID
	}
	if id.DisplayName == "" {
		id.DisplayName = displayNameFromSession(sess)
	}
	return id
}

// HasRole reports whether the identity carries a portal role.
func (i Identity) HasRole() bool { return i.Role.IsPortalRole() }

// Key returns the identity-cache key this identity was resolved under.
func (i Identity) Key() IdentityKey {
	return IdentityKey{SubjectID: i.SubjectID, Email: i.Email}
}

func displayNameFromSession(sess Session) string {
	for _, claim := range []string{"name", "full_name"} {
		if v, ok := sess.Claims[claim].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if meta, ok := sess.Claims["user_metadata"].(map[string]any); ok {
		if v, ok := meta["full_name"].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	local, _, _ := strings.Cut(sess.Email, "@")
	return local
}
