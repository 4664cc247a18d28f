package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clarity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLARITY_CONFIG_FILE", writeConfigFile(t, `
webhook:
  url: https://n8n.example/webhook/calendar
  legacy: true
  timeout_seconds: 10
  retries: 0
llm:
  model: claude-3-5-haiku-latest
  temperature: 0
db_path: /var/lib/clarity/clarity.db
http_port: 9000
routing: keywords
disambiguate_days: true
history_size: 10
retention:
  days: 30
  schedule: "0 3 * * *"
`))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://n8n.example/webhook/calendar", cfg.WebhookURL)
	assert.True(t, cfg.WebhookLegacyPayload)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, 0, cfg.WebhookRetries)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLMModel)
	assert.Equal(t, 0.0, cfg.LLMTemperature)
	assert.Equal(t, "/var/lib/clarity/clarity.db", cfg.DBPath)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, RoutingKeywords, cfg.Routing)
	assert.True(t, cfg.DisambiguateDays)
	assert.Equal(t, 10, cfg.HistorySize)
	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.PruneSchedule)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLARITY_CONFIG_FILE", writeConfigFile(t, `
webhook:
  url: https://file.example/hook
http_port: 9000
`))
	t.Setenv("CLARITY_WEBHOOK_URL", "https://env.example/hook")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/hook", cfg.WebhookURL)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.WebhookTimeout)
}

func TestLoad_FileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CLARITY_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CLARITY_CONFIG_FILE", writeConfigFile(t, "webhook: [unclosed"))

		_, err := Load()
		assert.Error(t, err)
	})
}
