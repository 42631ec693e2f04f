package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendKafka, cfg.EventLog.Backend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "3000", cfg.HTTP.Port)
	assert.Equal(t, "testing", cfg.App.PlaceholderProduct)
	assert.Equal(t, 100*time.Millisecond, cfg.EventLog.PublishBackoff)
	assert.False(t, cfg.Carts.ApplyRemovals)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EVENT_LOG_BACKEND", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CART_APPLY_REMOVALS", "true")
	t.Setenv("PUBLISH_RETRIES", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.EventLog.Backend)
	assert.Len(t, cfg.Kafka.Brokers, 2)
	assert.True(t, cfg.Carts.ApplyRemovals)
	assert.Equal(t, 7, cfg.EventLog.PublishRetries)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("EVENT_LOG_BACKEND", "rabbit")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DB{Host: "db", Port: "5432", Name: "carts", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/carts?sslmode=disable", d.DSN())

	d.URL = "postgres://override"
	assert.Equal(t, "postgres://override", d.DSN())
}
