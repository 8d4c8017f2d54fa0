package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PoojaS1511/Updated-CMS-sub000/config"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/adapters/devauth"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/statsd"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestBuildGuardRequiresRedis(t *testing.T) {
	_, err := BuildGuard(context.Background(), AuthConfig{
		Auth:   config.AuthConfig{Mode: config.AuthModeMock, DevAuth: config.DevAuthConfig{Users: "a,a@x.edu,pw"}},
		Logger: discardLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestBuildRoleResolverRequiresDB(t *testing.T) {
	_, err := BuildRoleResolver(AuthConfig{Logger: discardLogger()})
	require.Error(t, err)
}

func TestBuildIdentityProvider(t *testing.T) {
	ctx := context.Background()

	prov, err := BuildIdentityProvider(ctx, AuthConfig{
		Auth:   config.AuthConfig{Mode: config.AuthModeMock, DevAuth: config.DevAuthConfig{Users: "a,a@x.edu,pw,admin"}},
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	assert.IsType(t, &devauth.Provider{}, prov)

	_, err = BuildIdentityProvider(ctx, AuthConfig{
		Auth:   config.AuthConfig{Mode: config.AuthModeMock, DevAuth: config.DevAuthConfig{Users: "broken"}},
		Logger: discardLogger(),
	})
	assert.Error(t, err)

	_, err = BuildIdentityProvider(ctx, AuthConfig{
		Auth:   config.AuthConfig{Mode: config.AuthModeOIDC},
		Logger: discardLogger(),
	})
	assert.Error(t, err, "oidc without a discovery URL")

	_, err = BuildIdentityProvider(ctx, AuthConfig{Auth: config.AuthConfig{Mode: "saml"}})
	assert.Error(t, err)
}

func TestBuildRoleResolverRejectsPublicSuffixDomain(t *testing.T) {
	_, err := BuildRoleResolver(AuthConfig{
		Auth: config.AuthConfig{Admin: config.AdminConfig{EmailDomains: []string{"edu"}}},
		// The admin rule is validated before the database is touched.
		DB:     nil,
		Logger: discardLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin rule")
}

func TestBuildMetricsDisabledIsNoop(t *testing.T) {
	sink, closeFn := BuildMetrics(config.ObservabilityMetricsConfig{}, discardLogger())
	assert.IsType(t, statsd.Noop{}, sink)
	assert.NoError(t, closeFn())
}

func TestValidateConfig(t *testing.T) {
	cfg := &config.AppConfig{Auth: config.AuthConfig{Mode: config.AuthModeOIDC}}
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "OIDC_DISCOVERY_URL"))

	cfg.Auth.OIDC.DiscoveryURL = "https://issuer.example.edu"
	assert.NoError(t, ValidateConfig(cfg))

	cfg.Auth.Mode = config.AuthModeMock
	assert.NoError(t, ValidateConfig(cfg))

	assert.Error(t, ValidateConfig(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}
