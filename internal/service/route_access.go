package service

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/statsd"
)

type decisionKey struct {
	path string
	role string
}

// RouteAccessEvaluatorOptions groups optional dependencies for RouteAccessEvaluator.
type RouteAccessEvaluatorOptions struct {
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// RouteAccessEvaluator decides whether an identity may view a path and memoizes
// each decision per (path, role). It is the only writer of its decision cache.
type RouteAccessEvaluator struct {
	logger  *slog.Logger
	metrics statsd.Sink

	mu        sync.Mutex
	decisions map[decisionKey]domainauth.Decision
	// allowedFor remembers the allowed-role set each path was evaluated under.
	allowedFor map[string]string
}

// NewRouteAccessEvaluator constructs an evaluator with an empty decision cache.
func NewRouteAccessEvaluator(opts RouteAccessEvaluatorOptions) *RouteAccessEvaluator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteAccessEvaluator{
		logger:     logger,
		metrics:    statsd.OrNoop(opts.Metrics),
		decisions:  make(map[decisionKey]domainauth.Decision),
		allowedFor: make(map[string]string),
	}
}

// Evaluate returns the decision for showing path to id, and whether it came from the cache.
// A nil id is an unauthenticated visitor.
func (e *RouteAccessEvaluator) Evaluate(path string, id *domainauth.Identity, allowed []domainauth.Role) (domainauth.Decision, bool) {
	path = domainauth.CleanPath(path)
	key := decisionKey{path: path, role: roleKey(id)}
	signature := allowedSignature(allowed)

	e.mu.Lock()
	defer e.mu.Unlock()

	if prev, seen := e.allowedFor[path]; seen && prev != signature {
		// The route's role requirements changed; its earlier decisions no longer hold.
		e.logger.Debug("allowed roles changed; dropping route decisions", "path", path)
		e.dropPathLocked(path)
	}
	e.allowedFor[path] = signature

	if d, ok := e.decisions[key]; ok {
		e.metrics.Count("route.decision", 1, map[string]string{"outcome": string(d.Outcome), "cached": "true"})
		return d, true
	}

	d := decide(path, id, allowed)
	e.decisions[key] = d
	e.metrics.Count("route.decision", 1, map[string]string{"outcome": string(d.Outcome), "cached": "false"})
	return d, false
}

// Cached returns the memoized decision for path and id without computing one.
func (e *RouteAccessEvaluator) Cached(path string, id *domainauth.Identity) (domainauth.Decision, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.decisions[decisionKey{path: domainauth.CleanPath(path), role: roleKey(id)}]
	return d, ok
}

// Reset clears every memoized decision. Called whenever the subject changes.
func (e *RouteAccessEvaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
}

// Len returns the number of memoized decisions.
func (e *RouteAccessEvaluator) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.decisions)
}

func (e *RouteAccessEvaluator) dropPathLocked(path string) {
	for k := range e.decisions {
		if k.path == path {
			delete(e.decisions, k)
		}
	}
}

func (e *RouteAccessEvaluator) clearLocked() {
	e.decisions = make(map[decisionKey]domainauth.Decision)
	e.allowedFor = make(map[string]string)
}

// decide applies the access rules in precedence order. It is pure.
func decide(path string, id *domainauth.Identity, allowed []domainauth.Role) domainauth.Decision {
	var d domainauth.Decision
	switch {
	case id == nil:
		d = domainauth.RedirectTo(domainauth.LoginPath)
	case len(allowed) == 0 && id.HasRole():
		d = domainauth.Allow()
	case len(allowed) == 0:
		// Authenticated without a portal role is a hard failure, not a generic login.
		d = domainauth.Deny()
	case slices.ContainsFunc(allowed, id.Role.Satisfies):
		d = domainauth.Allow()
	case id.Role == domainauth.RoleAdmin:
		d = domainauth.Allow()
	default:
		d = domainauth.RedirectTo(domainauth.HomePath(id))
	}

	// Never send the subject to the page it is already on.
	if d.Outcome != domainauth.OutcomeAllow && domainauth.CleanPath(d.RedirectTo) == path {
		return domainauth.Allow()
	}
	return d
}

func roleKey(id *domainauth.Identity) string {
	if id == nil {
		return domainauth.AnonymousRoleKey
	}
	return string(id.Role)
}

func allowedSignature(allowed []domainauth.Role) string {
	if len(allowed) == 0 {
		return ""
	}
	parts := make([]string, len(allowed))
	for i, r := range allowed {
		parts[i] = string(r)
	}
	slices.Sort(parts)
	return strings.Join(slices.Compact(parts), ",")
}
