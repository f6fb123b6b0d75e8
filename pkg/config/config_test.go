package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, 10000.0, cfg.MatchRadiusMeters)
	assert.Equal(t, 20, cfg.MatchLimit)
	assert.Equal(t, "@every 1m", cfg.GeoResyncSchedule)
	assert.Equal(t, "@every 5m", cfg.OverdueSweepSchedule)
	assert.Equal(t, "lru", cfg.Cache.Type)
	assert.Equal(t, "300-M", cfg.RateLimit)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.SSEEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("API_PREFIX", "/v1")
	t.Setenv("MATCH_RADIUS_METERS", "2500.5")
	t.Setenv("MATCH_LIMIT", "5")
	t.Setenv("CACHE_TYPE", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SSE_ENABLED", "false")
	t.Setenv("SUMMARY_CACHE_TTL_SECONDS", "30")

	cfg := FromEnv()
	assert.Equal(t, "/v1", cfg.APIPrefix)
	assert.Equal(t, 2500.5, cfg.MatchRadiusMeters)
	assert.Equal(t, 5, cfg.MatchLimit)
	assert.Equal(t, "redis", cfg.Cache.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.SSEEnabled)
	assert.Equal(t, 30*time.Second, cfg.SummaryCacheTTL)
}
