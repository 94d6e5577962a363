package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/recital-seat-booking/internal/utils"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "recital")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ADMIN_PASSWORD", "opensesame")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DBLockWait)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.LoginTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.True(t, utils.VerifyPassword(cfg.AdminPasswordHash, "opensesame"))
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DB_LOCK_WAIT_TIMEOUT_SEC", "2")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("SESSION_TTL_DAYS", "1")
	t.Setenv("REQUEST_TIMEOUT", "750ms")
	t.Setenv("AMQP_URL", "amqp://broker:5672/")
	cfg := Load()

	assert.False(t, cfg.Dev())
	assert.Equal(t, 2*time.Second, cfg.DBLockWait)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 750*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, "amqp://broker:5672/", cfg.RabbitURL)
}

func TestAdminHash(t *testing.T) {
	h, err := adminHash("$2a$04$precomputed", "ignored", 4)
	require.NoError(t, err)
	assert.Equal(t, "$2a$04$precomputed", h)

	_, err = adminHash("", "", 4)
	assert.ErrorIs(t, err, errMissingAdmin)

	h, err = adminHash("", "opensesame", 4)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(h, "opensesame"))
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()

	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "guest_route", cfg.KeyStrategy)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head, post")
	t.Setenv("CACHE_TTL", "bogus")
	cfg := LoadCacheConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, 5*time.Second, cfg.TTL)
	assert.Equal(t, "route_query", cfg.KeyStrategy)
	assert.Equal(t, "cache", cfg.Prefix)
	assert.Equal(t, 1<<20, cfg.MaxBodyBytes)
}

func TestLoadCacheConfigClampsToSeatMapFreshness(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "off")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("CACHE_KEY_STRATEGY", "Method_Route")
	t.Setenv("CACHE_MAX_BODY_BYTES", "-1")
	cfg := LoadCacheConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, MaxCacheTTL, cfg.TTL)
	assert.Equal(t, "method_route", cfg.KeyStrategy)
	assert.Equal(t, 1<<20, cfg.MaxBodyBytes)

	t.Setenv("CACHE_KEY_STRATEGY", "by_cookie")
	assert.Equal(t, "route_query", LoadCacheConfig().KeyStrategy)
}

func TestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "3")
	opts, err := RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Nil(t, opts.TLSConfig)

	t.Setenv("REDIS_URL", "redis://:pw@broker:6379/2")
	opts, err = RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "broker:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
