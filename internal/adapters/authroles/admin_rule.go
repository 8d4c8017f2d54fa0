package authroles

// Package authroles recognises portal administrators from the session alone,
// without consulting any backing store.

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/net/publicsuffix"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// DefaultClaimExpr marks a subject as admin when the provider metadata says so.
const DefaultClaimExpr = "user_metadata.role == 'admin' || app_metadata.role == 'admin'"

// Match sources reported in domainauth.AdminRecord.Source.
const (
	SourceEmail       = "email"
	SourceEmailDomain = "email_domain"
	SourceClaims      = "claims"
)

var _ ports.AdminRule = (*AdminRule)(nil)

// AdminRuleConfig configures AdminRule.
type AdminRuleConfig struct {
	// EmailDomains grants admin to addresses in these domains and their subdomains.
	EmailDomains []string
	// Emails grants admin to these exact addresses.
	Emails []string
	// ClaimExpr is a JMESPath expression evaluated against the session claims.
	// A result of boolean true grants admin. Empty disables claim matching.
	ClaimExpr string
	Logger    *slog.Logger
}

// AdminRule is the in-process admin check: explicit addresses, organisational
// email domains, then provider claims.
type AdminRule struct {
	domains   []string
	emails    map[string]struct{}
	claimExpr string
	logger    *slog.Logger
}

// NewAdminRule validates cfg and builds the rule. Domains that are public suffixes
// (for example "edu" or "co.uk") are rejected because they would grant admin to
// every institution under them.
func NewAdminRule(cfg AdminRuleConfig) (*AdminRule, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &AdminRule{emails: make(map[string]struct{}), logger: logger}

	var errs []error
	for _, d := range cfg.EmailDomains {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), "@.")
		if d == "" {
			continue
		}
		if err := validateAdminDomain(d); err != nil {
			errs = append(errs, err)
			continue
		}
		r.domains = append(r.domains, d)
	}
	for _, e := range cfg.Emails {
		e = domainauth.NormalizeEmail(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "@") {
			errs = append(errs, fmt.Errorf("admin email %q is not an address", e))
			continue
		}
		r.emails[e] = struct{}{}
	}
	if expr := strings.TrimSpace(cfg.ClaimExpr); expr != "" {
		if _, err := jmespath.Compile(expr); err != nil {
			errs = append(errs, fmt.Errorf("admin claim expression: %w", err))
		} else {
			r.claimExpr = expr
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

func validateAdminDomain(d string) error {
	if !strings.Contains(d, ".") {
		return fmt.Errorf("admin email domain %q must be a registrable domain", d)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(d); err != nil {
		return fmt.Errorf("admin email domain %q is a public suffix: %w", d, err)
	}
	return nil
}

// Match reports whether sess belongs to an administrator.
func (r *AdminRule) Match(sess domainauth.Session) (domainauth.AdminRecord, bool) {
	email := domainauth.NormalizeEmail(sess.Email)
	if _, ok := r.emails[email]; ok && email != "" {
		return domainauth.AdminRecord{Source: SourceEmail}, true
	}
	if _, domain, ok := strings.Cut(email, "@"); ok && domain != "" {
		for _, d := range r.domains {
			if domain == d || strings.HasSuffix(domain, "."+d) {
				return domainauth.AdminRecord{Source: SourceEmailDomain}, true
			}
		}
	}
	if r.claimExpr != "" && len(sess.Claims) > 0 {
		v, err := jmespath.Search(r.claimExpr, map[string]any(sess.Claims))
		if err != nil {
			r.logger.Warn("admin claim expression failed", "subject", sess.SubjectID, "error", err)
			return domainauth.AdminRecord{}, false
		}
		if b, ok := v.(bool); ok && b {
			return domainauth.AdminRecord{Source: SourceClaims}, true
		}
	}
	return domainauth.AdminRecord{}, false
}

// Domains returns the configured admin email domains.
func (r *AdminRule) Domains() []string { return append([]string(nil), r.domains...) }
