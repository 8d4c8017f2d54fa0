package testutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTestDBConfig(t *testing.T) {
	for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME", "DB_SSL_MODE"} {
		t.Setenv(k, "")
	}
	cfg := DefaultTestDBConfig()
	assert.Equal(t, TestDBConfig{
		Host: "localhost", Port: "55432", User: "portal", Password: "portal", DBName: "portal", SSLMode: "disable",
	}, cfg)

	t.Setenv("TEST_DB_HOST", "postgres")
	t.Setenv("TEST_DB_PORT", "5432")
	cfg = DefaultTestDBConfig()
	assert.Equal(t, "postgres", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
}

func TestDSN(t *testing.T) {
	cfg := TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss/word", DBName: "portal", SSLMode: "disable"}

	u, err := url.Parse(cfg.DSN("t_abc"))
	require.NoError(t, err)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss/word", pw)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "t_abc,public", u.Query().Get("search_path"))

	u, err = url.Parse(cfg.DSN(""))
	require.NoError(t, err)
	assert.Empty(t, u.Query().Get("search_path"))
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TEST_FLAG", "Yes")
	assert.True(t, envBool("TEST_FLAG"))
	t.Setenv("TEST_FLAG", "0")
	assert.False(t, envBool("TEST_FLAG"))
}
