package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "HTTP_ADDRESS", "STORAGE_DRIVER", "KAFKA_BROKERS", "CONSUMER_TOPICS", "COMPAT_SOFT_ERRORS", "RATE_LIMIT_RPS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, ":3000", cfg.HTTPAddress)
	require.Equal(t, "postgres", cfg.StorageDriver)
	require.Empty(t, cfg.KafkaBrokers)
	require.Equal(t, []string{"user_events", "exercise_events"}, cfg.ConsumerTopics)
	require.False(t, cfg.CompatSoftError)
	require.Zero(t, cfg.RateLimitRPS)
	require.True(t, cfg.MigrateOnStart)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":8080")
	t.Setenv("PORT", "4000")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	t.Setenv("COMPAT_SOFT_ERRORS", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()
	require.Equal(t, ":4000", cfg.HTTPAddress)
	require.Equal(t, "sqlite", cfg.StorageDriver)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.True(t, cfg.CompatSoftError)
	require.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
}
