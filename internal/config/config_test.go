package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageBackendFile, cfg.Storage.Backend)
	assert.Equal(t, "data/tickets.json", cfg.Storage.FilePath)
	assert.False(t, cfg.Storage.StrictDecode)
	assert.Equal(t, 24*60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 150, cfg.AI.MaxTokens)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 5000, cfg.AI.MaxDescriptionLength)
	assert.Equal(t, 3, cfg.Email.MaxRetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.Email.RetryDelay())
	assert.Equal(t, 45*time.Second, cfg.App.RequestTimeout())
	assert.Less(t, cfg.AI.Timeout(), cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6380")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_ENABLED", "false")
	t.Setenv("NOTIFY_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageBackendRedis, cfg.Storage.Backend)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 1e-9)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, 4, cfg.Notification.Workers)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "s3")
		_, err := Load()
		assert.ErrorContains(t, err, "unknown STORAGE_BACKEND")
	})
	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "postgres")
		t.Setenv("POSTGRES_DSN", "")
		_, err := Load()
		assert.ErrorContains(t, err, "POSTGRES_DSN")
	})
	t.Run("short jwt secret", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "file")
		t.Setenv("AUTH_JWT_SECRET", "too-short")
		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_JWT_SECRET")
	})
	t.Run("ai timeout not below request timeout", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "file")
		t.Setenv("AI_ENABLED", "true")
		t.Setenv("AI_TIMEOUT_SECONDS", "30")
		t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "30")
		_, err := Load()
		assert.ErrorContains(t, err, "AI_TIMEOUT_SECONDS")
	})
	t.Run("bad redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "zero")
		_, err := Load()
		assert.ErrorContains(t, err, "REDIS_DB")
	})
}
