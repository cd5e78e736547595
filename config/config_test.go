package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "release", cfg.Server.Mode)
	// SSE 长连接依赖零写超时
	require.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "Asia/Tashkent", cfg.Mood.Timezone)
	require.EqualValues(t, 5, cfg.Mood.RateLimit)
	require.Equal(t, time.Minute, cfg.Mood.RateWindow)
	require.Equal(t, 48*time.Hour, cfg.Mood.CounterTTL)
	require.EqualValues(t, 100, cfg.Mood.MinSampleCountry)
	require.Equal(t, 25*time.Second, cfg.Mood.SSEHeartbeat)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MOODA_SERVER_ADDR", ":9090")
	t.Setenv("MOODA_MOOD_RATE_LIMIT", "10")
	t.Setenv("MOODA_REDIS_ADDR", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.EqualValues(t, 10, cfg.Mood.RateLimit)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
}
