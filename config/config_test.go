package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // .env okunmasın

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "./data/syncwave.db", cfg.Database.Path)
	assert.Equal(t, "./media", cfg.Media.Dir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)

	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Sync.SweepInterval)
	assert.Equal(t, 5*time.Second, cfg.Sync.StaleAfter)
	assert.Equal(t, 5*time.Second, cfg.Sync.SweepBackoff)

	assert.Equal(t, 100, cfg.Chat.HistorySize)
	assert.Equal(t, 500, cfg.Chat.MaxLength)
	assert.Equal(t, 5, cfg.Chat.RateMax)
	assert.Equal(t, 5*time.Second, cfg.Chat.RateWindow)
	assert.Equal(t, 15*time.Second, cfg.Chat.RateCooldown)
	assert.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
	assert.Equal(t, 20, cfg.API.WriteRateMax)
	assert.Equal(t, time.Minute, cfg.API.WriteRateWindow)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("SYNC_DEBOUNCE_MS", "750")
	t.Setenv("CHAT_HISTORY_SIZE", "20")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 750*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, 20, cfg.Chat.HistorySize)
	assert.True(t, cfg.Log.Development)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SERVER_PORT", "eighty"},
		{"LOG_DEVELOPMENT", "maybe"},
		{"SYNC_DEBOUNCE_MS", "0"},
		{"SYNC_STALE_AFTER_MS", "soon"},
		{"CHAT_MAX_LENGTH", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
