package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("HISTORY_WINDOW", "")
	t.Setenv("DEFAULT_CITY", "")

	cfg := Load()

	assert.Equal(t, "3001", cfg.ServerPort)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, 3, cfg.DefaultDays)
	assert.Equal(t, "Сочи", cfg.DefaultCity)
	assert.InDelta(t, 0.8, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 2*time.Minute, cfg.ActionDedupTTL)
	assert.Equal(t, "trip-assistant", cfg.NATSClientName)
	assert.Equal(t, -1, cfg.NATSMaxReconnects)
	assert.Equal(t, 720*time.Hour, cfg.NATSStreamMaxAge)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LLM_TEMPERATURE", "0.3")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("PUBLIC_BASE_URL", "https://trips.example.org/")
	t.Setenv("HISTORY_WINDOW", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.org, ,https://admin.example.org")
	t.Setenv("NATS_RECONNECT_WAIT", "500ms")

	cfg := Load()

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.InDelta(t, 0.3, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.Equal(t, "https://trips.example.org", cfg.PublicBaseURL)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, []string{"https://app.example.org", "https://admin.example.org"}, cfg.CORSOrigins)
	assert.Equal(t, 500*time.Millisecond, cfg.NATSReconnectWait)
}

func TestValidate(t *testing.T) {
	cfg := &Config{LLMProvider: "openai", HistoryWindow: 10, DefaultDays: 3}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.DatabaseURL = "postgres://localhost/trips"
	cfg.OpenAIAPIKey = "sk-test"
	require.NoError(t, cfg.Validate())

	cfg.LLMProvider = "bard"
	require.Error(t, cfg.Validate())
}
