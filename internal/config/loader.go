package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARENA_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARENA_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setBool(&cfg.Server.Enabled, "ARENA_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ARENA_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ARENA_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ARENA_SERVER_API_KEY")

	// ── Engine ──
	setDuration(&cfg.Engine.TickInterval, "ARENA_ENGINE_TICK_INTERVAL")
	setStr(&cfg.Engine.DefaultBot, "ARENA_ENGINE_DEFAULT_BOT")
	setFloat64(&cfg.Engine.Volatility, "ARENA_ENGINE_VOLATILITY")

	// ── Binance ──
	setBool(&cfg.Binance.Enabled, "ARENA_BINANCE_ENABLED")
	setStr(&cfg.Binance.BaseURL, "ARENA_BINANCE_BASE_URL")
	setStr(&cfg.Binance.WsURL, "ARENA_BINANCE_WS_URL")
	setBool(&cfg.Binance.Streaming, "ARENA_BINANCE_STREAMING")

	// ── OpenRouter ──
	setStr(&cfg.OpenRouter.BaseURL, "ARENA_OPENROUTER_BASE_URL")
	setStr(&cfg.OpenRouter.ApiKey, "ARENA_OPENROUTER_API_KEY")
	setStr(&cfg.OpenRouter.ApiKey, "OPENROUTER_API_KEY") // compatibility alias
	setStr(&cfg.OpenRouter.Model, "ARENA_OPENROUTER_MODEL")
	setDuration(&cfg.OpenRouter.Timeout, "ARENA_OPENROUTER_TIMEOUT")

	// ── Claw ──
	setStr(&cfg.Claw.TokenHash, "ARENA_CLAW_TOKEN_HASH")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARENA_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARENA_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARENA_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARENA_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARENA_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARENA_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARENA_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ARENA_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ARENA_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "ARENA_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARENA_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARENA_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARENA_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARENA_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARENA_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARENA_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARENA_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARENA_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARENA_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARENA_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARENA_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARENA_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARENA_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARENA_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARENA_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARENA_S3_FORCE_PATH_STYLE")

	// ── Leaderboard ──
	setDuration(&cfg.Leaderboard.PublishInterval, "ARENA_LEADERBOARD_PUBLISH_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARENA_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARENA_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARENA_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARENA_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ARENA_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
