package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/PoojaS1511/Updated-CMS-sub000/config"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/authroles"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/devauth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/oidc"
	redisadapter "github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/redis"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/data"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/statsd"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/ports"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service"
)

// AuthConfig contains what the auth stack is built from.
type AuthConfig struct {
	Auth        config.AuthConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Navigator   ports.Navigator
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

func (c AuthConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// BuildIdentityProvider creates the provider selected by AUTH_MODE.
//
//nolint:ireturn // the provider implementation is chosen at runtime.
func BuildIdentityProvider(ctx context.Context, cfg AuthConfig) (ports.IdentityProvider, error) {
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		users, err := devauth.ParseUsers(cfg.Auth.DevAuth.Users)
		if err != nil {
			return nil, fmt.Errorf("dev auth users: %w", err)
		}
		prov, err := devauth.NewProvider(devauth.Config{
			Users:   users,
			Latency: cfg.Auth.DevAuth.Latency,
			Logger:  cfg.logger(),
		})
		if err != nil {
			return nil, err
		}
		cfg.logger().WarnContext(ctx, "using dev auth provider", "users", len(users))
		return prov, nil

	case config.AuthModeOIDC:
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     cfg.Auth.OIDC.ClientID,
			ClientSecret: cfg.Auth.OIDC.ClientSecret,
			Scope:        cfg.Auth.OIDC.Scope,
			DiscoveryURL: cfg.Auth.OIDC.DiscoveryURL,
			Logger:       cfg.logger(),
		})
		if err != nil {
			return nil, fmt.Errorf("oidc provider: %w", err)
		}
		return prov, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

// BuildRoleResolver wires the admin rule and the Postgres directories into a resolver
// with its own identity cache.
func BuildRoleResolver(cfg AuthConfig) (*service.RoleResolver, error) {
	admin, err := authroles.NewAdminRule(authroles.AdminRuleConfig{
		EmailDomains: cfg.Auth.Admin.EmailDomains,
		Emails:       cfg.Auth.Admin.Emails,
		ClaimExpr:    cfg.Auth.Admin.ClaimExpr,
		Logger:       cfg.logger(),
	})
	if err != nil {
		return nil, fmt.Errorf("admin rule: %w", err)
	}
	if cfg.DB == nil {
		return nil, errors.New("role resolver requires a database")
	}

	dirCfg := data.DirectoryConfig{LookupTimeout: cfg.Auth.LookupTimeout}
	return service.NewRoleResolver(service.RoleResolverOptions{
		AdminRule: admin,
		Faculty:   data.NewFacultyRepo(cfg.DB, dirCfg),
		Students:  data.NewStudentRepo(cfg.DB, dirCfg),
		Cache:     service.NewIdentityCache(),
		// One probe runs the faculty query and then the student query.
		LookupTimeout: 2 * cfg.Auth.LookupTimeout,
		Logger:        cfg.logger(),
		Metrics:       cfg.Metrics,
	}), nil
}

// BuildGuard assembles provider, token store, resolver, session manager, evaluator
// and guard. The guard is returned unstarted.
func BuildGuard(ctx context.Context, cfg AuthConfig) (*service.AuthGuard, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth guard requires a redis client for the persisted token")
	}
	provider, err := BuildIdentityProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resolver, err := BuildRoleResolver(cfg)
	if err != nil {
		return nil, err
	}

	sessions := service.NewSessionManager(service.SessionManagerOptions{
		Provider:     provider,
		Tokens:       redisadapter.NewTokenStoreWithKey(cfg.RedisClient, cfg.Auth.TokenKey),
		Resolver:     resolver,
		LoginTimeout: cfg.Auth.LoginTimeout,
		Logger:       cfg.logger(),
		Metrics:      cfg.Metrics,
	})
	evaluator := service.NewRouteAccessEvaluator(service.RouteAccessEvaluatorOptions{
		Logger:  cfg.logger(),
		Metrics: cfg.Metrics,
	})
	return service.NewAuthGuard(service.AuthGuardOptions{
		Sessions:  sessions,
		Evaluator: evaluator,
		Navigator: cfg.Navigator,
		Logger:    cfg.logger(),
	}), nil
}

// BuildMetrics returns the StatsD sink for cfg and a closer for it. Disabled metrics
// and dial failures both yield the no-op sink; a failure is logged.
//
//nolint:ireturn // callers hold the Sink interface.
func BuildMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (statsd.Sink, func() error) {
	noop := func() error { return nil }
	if !cfg.IsEnabled() {
		return statsd.Noop{}, noop
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
		return statsd.Noop{}, noop
	}
	return client, client.Close
}
