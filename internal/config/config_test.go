package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOTEBOOK_CONFIG", "")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "inline", cfg.GenerationMode)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.MaxPollAttempts)
	assert.Equal(t, "veo-2.0-generate-001", cfg.GeminiVideoModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiChatModel)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY wins over API_KEY", func(t *testing.T) {
		t.Setenv("API_KEY", "browser-key")
		t.Setenv("GEMINI_API_KEY", "gemini-key")

		cfg := Defaults()
		cfg.applyEnvOverrides()

		assert.Equal(t, "gemini-key", cfg.GeminiAPIKey)
	})

	t.Run("API_KEY alone is accepted", func(t *testing.T) {
		t.Setenv("API_KEY", "browser-key")
		t.Setenv("GEMINI_API_KEY", "")

		cfg := Defaults()
		cfg.applyEnvOverrides()

		assert.Equal(t, "browser-key", cfg.GeminiAPIKey)
	})

	t.Run("durations and ints", func(t *testing.T) {
		t.Setenv("POLL_INTERVAL", "250ms")
		t.Setenv("MAX_POLL_ATTEMPTS", "30")
		t.Setenv("REDIS_DB", "not-a-number")

		cfg := Defaults()
		cfg.applyEnvOverrides()

		assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
		assert.Equal(t, 30, cfg.MaxPollAttempts)
		assert.Equal(t, 0, cfg.RedisDB)
	})
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notebook.yaml")
	body := []byte("generation_mode: queue\nrabbit_queue: from-file\npoll_interval: 5s\nai_provider: ollama\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("APP_ENV", "production")
	t.Setenv("NOTEBOOK_CONFIG", path)
	t.Setenv("RABBIT_QUEUE", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "queue", cfg.GenerationMode)
	assert.Equal(t, "from-env", cfg.RabbitQueue)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "ollama", cfg.AIProvider)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.GenerationMode = "cron"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.MediaBackend = "s3"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Defaults().Validate())
}
