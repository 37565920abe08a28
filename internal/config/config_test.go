package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "HTTP_PORT", "POSTGRES_DSN", "REDIS_URL", "REDIS_ADDR", "REDIS_USERNAME",
		"REDIS_PASSWORD", "LOG_LEVEL", "LOCK_TTL", "SHUTDOWN_TIMEOUT", "JWT_SECRET", "TOKEN_TTL",
		"BOOKING_RATE_LIMIT", "BOOKING_RATE_WINDOW", "DEFAULT_PAGE_SIZE", "POSTGRES_MAX_CONNS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/hospital")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.BookingRateLimit)
	assert.Equal(t, time.Minute, cfg.BookingRateWindow)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.Equal(t, 10, cfg.PostgresMaxConns)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
}

func TestLoad_RequiresDSN(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	assert.EqualError(t, err, "POSTGRES_DSN is required")
}

func TestLoad_RequiresJWTSecretInProd(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/hospital")
	t.Setenv("APP_ENV", "prod")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_RedisURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/hospital")
	t.Setenv("REDIS_URL", "redis://user:pw@cache:6380")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", cfg.RedisAddr)
	assert.Equal(t, "user", cfg.RedisUsername)
	assert.Equal(t, "pw", cfg.RedisPassword)
}

func TestLoad_Durations(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/hospital")
	t.Setenv("LOCK_TTL", "3")
	t.Setenv("BOOKING_RATE_WINDOW", "30s")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.LockTTL)
	assert.Equal(t, 30*time.Second, cfg.BookingRateWindow)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DSN", "postgres://localhost/hospital")
	t.Setenv("BOOKING_RATE_LIMIT", "0")

	_, err := Load()
	assert.Error(t, err)
}
