package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

[server]
port = 9090

[engine]
tick_interval = "5m"
default_bot = "ai"

[[engine.assets]]
symbol = "BTC"
price = 50000.0
pair = "BTCUSDT"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Enabled, "defaults survive partial files")
	assert.Equal(t, 5*time.Minute, cfg.Engine.TickInterval.Duration)
	assert.Equal(t, "ai", cfg.Engine.DefaultBot)
	require.Len(t, cfg.Engine.Assets, 1)
	assert.Equal(t, "BTCUSDT", cfg.Engine.Assets[0].Pair)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `[server]
port = 9090
`)

	t.Setenv("ARENA_SERVER_PORT", "7001")
	t.Setenv("ARENA_OPENROUTER_API_KEY", "sk-test")
	t.Setenv("ARENA_ENGINE_TICK_INTERVAL", "30s")
	t.Setenv("ARENA_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.OpenRouter.ApiKey)
	assert.Equal(t, 30*time.Second, cfg.Engine.TickInterval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.Engine.DefaultBot = "quantum"
	cfg.Engine.Volatility = 2
	cfg.Engine.Assets = append(cfg.Engine.Assets, AssetConfig{Symbol: "BTC", Price: 1})
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "default_bot")
	assert.Contains(t, err.Error(), "volatility")
	assert.Contains(t, err.Error(), "duplicate asset")
	assert.Contains(t, err.Error(), "redis: addr")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "admin-key"
	cfg.OpenRouter.ApiKey = "sk-or-123"
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.TelegramToken = "bot:token"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.OpenRouter.ApiKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	// Original is untouched.
	assert.Equal(t, "admin-key", cfg.Server.APIKey)

	red.Engine.Assets[0].Symbol = "XXX"
	assert.NotEqual(t, "XXX", cfg.Engine.Assets[0].Symbol)
}
