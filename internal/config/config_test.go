package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("AUTH_COOKIE_SECURE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")

	cfg := Load()

	require.Equal(t, "development", cfg.Environment)
	require.False(t, cfg.IsProduction())
	require.False(t, cfg.AuthCookieSecure)
	require.Equal(t, "postgres", cfg.DBType)
	require.Empty(t, cfg.CORSOrigins)
	require.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_TYPE", "SQLite")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example.in, ,https://admin.example.in ")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_LOGIN_RATE", "1.5")

	cfg := Load()

	require.True(t, cfg.IsProduction())
	require.True(t, cfg.AuthCookieSecure)
	require.Equal(t, "sqlite", cfg.DBType)
	require.Equal(t, 20, cfg.DBMaxOpenConn)
	require.Equal(t, []string{"https://app.example.in", "https://admin.example.in"}, cfg.CORSOrigins)
	require.True(t, cfg.Redis.Enabled())
	require.False(t, cfg.RateLimit.Enabled)
	require.InDelta(t, 1.5, cfg.RateLimit.LoginRate, 0.0001)
}
