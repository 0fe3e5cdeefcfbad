package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads with defaults", func(t *testing.T) {
		t.Setenv("GATEWAY_URL", "https://script.example.com/exec")
		t.Setenv("CACHE_PATH", "")
		t.Setenv("GATEWAY_TIMEOUT_SECONDS", "")
		t.Setenv("SYNC_INTERVAL_SECONDS", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "https://script.example.com/exec", cfg.GatewayURL)
		assert.Equal(t, DefaultGatewayTimeout, cfg.GatewayTimeout)
		assert.Equal(t, DefaultSyncInterval, cfg.SyncInterval)
		assert.NotEmpty(t, cfg.CachePath)
	})

	t.Run("parses overrides", func(t *testing.T) {
		t.Setenv("GATEWAY_URL", "https://script.example.com/exec")
		t.Setenv("GATEWAY_TIMEOUT_SECONDS", "10")
		t.Setenv("SYNC_INTERVAL_SECONDS", "30")
		t.Setenv("CACHE_PATH", "/tmp/test-cache.db")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
		assert.Equal(t, 30*time.Second, cfg.SyncInterval)
		assert.Equal(t, "/tmp/test-cache.db", cfg.CachePath)
	})

	t.Run("invalid override falls back to default", func(t *testing.T) {
		t.Setenv("GATEWAY_URL", "https://script.example.com/exec")
		t.Setenv("SYNC_INTERVAL_SECONDS", "zero")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DefaultSyncInterval, cfg.SyncInterval)
	})

	t.Run("missing gateway url fails", func(t *testing.T) {
		t.Setenv("GATEWAY_URL", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GATEWAY_URL is required")
	})

	t.Run("non-http gateway url fails", func(t *testing.T) {
		t.Setenv("GATEWAY_URL", "ftp://example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "http(s)")
	})
}
