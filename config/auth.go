package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity provider the portal signs users in with.
type AuthMode string

const (
	// AuthModeOIDC uses an OpenID Connect issuer with the password grant.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses the in-process dev provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, mock)", v)
	}
}

// OIDCConfig contains OpenID Connect configuration.
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"portal"`
	ClientSecret string `env:"CLIENT_SECRET"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// DevAuthConfig controls the mock provider's accounts.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	// Users holds "subject,email,password[,role]" entries separated by ";".
	Users   string        `env:"USERS"   envDefault:"dev-admin,admin@portal.local,admin,admin;dev-faculty,faculty@portal.local,faculty;dev-hod,hod@portal.local,hod;dev-student,student@portal.local,student"`
	Latency time.Duration `env:"LATENCY" envDefault:"0s"`
}

// AdminConfig controls the in-process admin rule.
type AdminConfig struct {
	EmailDomains []string `env:"ADMIN_EMAIL_DOMAINS" envSeparator:","`
	Emails       []string `env:"ADMIN_EMAILS"        envSeparator:","`
	ClaimExpr    string   `env:"ADMIN_CLAIM_EXPR"    envDefault:"user_metadata.role == 'admin' || app_metadata.role == 'admin'"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	Admin AdminConfig

	// LoginTimeout bounds a single sign-in attempt.
	LoginTimeout time.Duration `env:"AUTH_LOGIN_TIMEOUT" envDefault:"10s"`

	// TokenKey is the Redis key holding the persisted access token.
	TokenKey string `env:"AUTH_TOKEN_KEY" envDefault:"portal:access_token"`

	// LookupTimeout bounds each faculty or student directory query.
	LookupTimeout time.Duration `env:"DIRECTORY_LOOKUP_TIMEOUT" envDefault:"3s"`
}

// Sanitize trims list entries and clamps durations.
func (c *AuthConfig) Sanitize() {
	c.Admin.EmailDomains = compact(c.Admin.EmailDomains)
	c.Admin.Emails = compact(c.Admin.Emails)
	c.Admin.ClaimExpr = strings.TrimSpace(c.Admin.ClaimExpr)
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = 10 * time.Second
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 3 * time.Second
	}
	if c.DevAuth.Latency < 0 {
		c.DevAuth.Latency = 0
	}
	if c.TokenKey = strings.TrimSpace(c.TokenKey); c.TokenKey == "" {
		c.TokenKey = "portal:access_token"
	}
}

func compact(in []string) []string {
	out := in[:0]
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
