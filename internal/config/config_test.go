package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FANOUT_BACKEND", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "TK-", cfg.Tickets.IDPrefix)
	assert.Equal(t, 2*time.Second, cfg.Activity.GraceWindow)
	assert.Equal(t, FanoutBackendMemory, cfg.Fanout.Backend)
	assert.Equal(t, 64, cfg.Fanout.SubscriberBuffer)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ACTIVITY_GRACE_WINDOW_MS", "1500")
	t.Setenv("TICKET_ID_PREFIX", "ISS-")
	t.Setenv("FANOUT_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Activity.GraceWindow)
	assert.Equal(t, "ISS-", cfg.Tickets.IDPrefix)
	assert.Equal(t, FanoutBackendRedis, cfg.Fanout.Backend)
	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 0.0001)
}

func TestLoadRejectsRedisFanoutWithoutAddr(t *testing.T) {
	t.Setenv("FANOUT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("FANOUT_BACKEND", "kafka")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("FANOUT_BACKEND", "")
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	require.Error(t, err)
}
