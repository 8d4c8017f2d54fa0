package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/PoojaS1511/Updated-CMS-sub000/internal/domain/auth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/metrics"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/statsd"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
)

// DefaultLookupTimeout bounds one shared directory probe.
const DefaultLookupTimeout = 10 * time.Second

// RoleResolverOptions groups dependencies for RoleResolver.
type RoleResolverOptions struct {
	AdminRule ports.AdminRule
	Faculty   ports.FacultyDirectory
	Students  ports.StudentDirectory
	Cache     *IdentityCache
	// LookupTimeout bounds a probe shared by concurrent callers. Defaults to DefaultLookupTimeout.
	LookupTimeout time.Duration
	Logger        *slog.Logger
	Metrics       statsd.Sink
}

// RoleResolver maps a verified session to an Identity by probing the admin rule,
// the faculty directory and the student directory, in that order.
// It is the only writer of its IdentityCache.
type RoleResolver struct {
	admin    ports.AdminRule
	faculty  ports.FacultyDirectory
	students ports.StudentDirectory
	cache    *IdentityCache
	timeout  time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
	flight   singleflight.Group
}

// NewRoleResolver constructs a RoleResolver. The directories are required.
func NewRoleResolver(opts RoleResolverOptions) *RoleResolver {
	if opts.Faculty == nil || opts.Students == nil {
		panic("service: RoleResolver requires faculty and student directories")
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewIdentityCache()
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleResolver{
		admin:    opts.AdminRule,
		faculty:  opts.Faculty,
		students: opts.Students,
		cache:    cache,
		timeout:  timeout,
		logger:   logger,
		metrics:  statsd.OrNoop(opts.Metrics),
	}
}

// Cache exposes the identity cache for read-only consumers.
func (r *RoleResolver) Cache() *IdentityCache { return r.cache }

// Reset clears every cached identity.
func (r *RoleResolver) Reset() { r.cache.Clear() }

// Resolve returns the Identity for sess. Cached results (including the explicit
// no-role result) are returned without touching any store.
// Transport failures of a store return a *domainauth.ResolutionError and are not cached.
// Concurrent callers share one probe; each caller stops waiting when its own ctx ends
// without failing the others.
func (r *RoleResolver) Resolve(ctx context.Context, sess domainauth.Session) (domainauth.Identity, error) {
	if sess.SubjectID == "" {
		return domainauth.Identity{}, errors.New("resolve identity: session has no subject")
	}
	key := sess.Key()
	if id, ok := r.cache.Get(key); ok {
		r.metrics.Count("resolve.cache_hit", 1, map[string]string{"role": string(id.Role)})
		return id, nil
	}

	generation := r.cache.Generation()
	flightKey := fmt.Sprintf("%d|%s|%s", generation, key.SubjectID, key.Email)
	ch := r.flight.DoChan(flightKey, func() (any, error) {
		if id, ok := r.cache.Get(key); ok {
			return id, nil
		}
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		start := time.Now()
		id, err := r.probe(probeCtx, sess)
		metrics.EmitResolution(r.metrics, metrics.ResolutionMetric{
			Role:     string(id.Role),
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			return domainauth.Identity{}, err
		}
		if !r.cache.set(key, id, generation) {
			r.logger.DebugContext(ctx, "identity cache cleared during resolution; result not cached",
				"subject", sess.SubjectID)
		}
		return id, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domainauth.Identity{}, res.Err
		}
		id, _ := res.Val.(domainauth.Identity)
		return id, nil
	case <-ctx.Done():
		return domainauth.Identity{}, fmt.Errorf("resolve identity: %w", ctx.Err())
	}
}

func (r *RoleResolver) probe(ctx context.Context, sess domainauth.Session) (domainauth.Identity, error) {
	if r.admin != nil {
		if rec, ok := r.admin.Match(sess); ok {
			return domainauth.NewIdentity(sess, rec), nil
		}
	}

	fac, err := r.faculty.FindBySubject(ctx, sess.SubjectID)
	if err != nil {
		if errors.Is(err, domainauth.ErrStoreUnavailable) {
			return domainauth.Identity{}, &domainauth.ResolutionError{Store: "faculty", Cause: err}
		}
		r.logger.WarnContext(ctx, "faculty lookup failed; treating as no match",
			"subject", sess.SubjectID, "error", err)
	} else if fac != nil {
		return domainauth.NewIdentity(sess, *fac), nil
	}

	stu, err := r.students.FindByEmail(ctx, domainauth.NormalizeEmail(sess.Email))
	if err != nil {
		if errors.Is(err, domainauth.ErrStoreUnavailable) {
			return domainauth.Identity{}, &domainauth.ResolutionError{Store: "student", Cause: err}
		}
		r.logger.WarnContext(ctx, "student lookup failed; treating as no match",
			"subject", sess.SubjectID, "email", redactEmail(sess.Email), "error", err)
	} else if stu != nil {
		return domainauth.NewIdentity(sess, *stu), nil
	}

	return domainauth.NewIdentity(sess, domainauth.NoRoleRecord{}), nil
}

// redactEmail keeps the first character of the local part and the domain.
func redactEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}
