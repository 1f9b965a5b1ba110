// Package config defines the top-level configuration for the arena daemon
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARENA_* environment variables.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Engine      EngineConfig      `toml:"engine"`
	Binance     BinanceConfig     `toml:"binance"`
	OpenRouter  OpenRouterConfig  `toml:"openrouter"`
	Claw        ClawConfig        `toml:"claw"`
	Redis       RedisConfig       `toml:"redis"`
	Postgres    PostgresConfig    `toml:"postgres"`
	S3          S3Config          `toml:"s3"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
	Notify      NotifyConfig      `toml:"notify"`
	LogLevel    string            `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

// EngineConfig holds the tick loop and portfolio seed parameters.
type EngineConfig struct {
	TickInterval duration      `toml:"tick_interval"`
	DefaultBot   string        `toml:"default_bot"`
	Volatility   float64       `toml:"volatility"`
	Assets       []AssetConfig `toml:"assets"`
}

// AssetConfig seeds one tradable asset. Pair is the Binance trading pair used
// for live quotes; when empty the asset is driven by the random-walk
// simulator instead.
type AssetConfig struct {
	Symbol string  `toml:"symbol"`
	Price  float64 `toml:"price"`
	Pair   string  `toml:"pair"`
}

// BinanceConfig holds Binance market data endpoints.
type BinanceConfig struct {
	Enabled   bool   `toml:"enabled"`
	BaseURL   string `toml:"base_url"`
	WsURL     string `toml:"ws_url"`
	Streaming bool   `toml:"streaming"`
}

// OpenRouterConfig holds the LLM advisor credentials. An empty api_key
// disables the ai bot's remote decisions (it degrades to holding).
type OpenRouterConfig struct {
	BaseURL string   `toml:"base_url"`
	ApiKey  string   `toml:"api_key"`
	Model   string   `toml:"model"`
	Timeout duration `toml:"timeout"`
}

// ClawConfig holds the credential that gates the external decision endpoint.
type ClawConfig struct {
	TokenHash string `toml:"token_hash"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters for the leaderboard
// store. When disabled, leaderboard entries live in memory only.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for the trade
// archive.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// LeaderboardConfig holds the leaderboard publishing cadence.
type LeaderboardConfig struct {
	PublishInterval duration `toml:"publish_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "15m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "15m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Engine: EngineConfig{
			TickInterval: duration{15 * time.Minute},
			DefaultBot:   "martingale",
			Volatility:   0.008,
			Assets: []AssetConfig{
				{Symbol: "BTC", Price: 65000, Pair: "BTCUSDT"},
				{Symbol: "ETH", Price: 3200, Pair: "ETHUSDT"},
				{Symbol: "SOL", Price: 150, Pair: "SOLUSDT"},
				{Symbol: "DOGE", Price: 0.12, Pair: "DOGEUSDT"},
			},
		},
		Binance: BinanceConfig{
			Enabled:   true,
			BaseURL:   "https://api.binance.com",
			WsURL:     "wss://stream.binance.com:9443/ws",
			Streaming: false,
		},
		OpenRouter: OpenRouterConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "anthropic/claude-3.5-haiku",
			Timeout: duration{45 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arenabot-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Leaderboard: LeaderboardConfig{
			PublishInterval: duration{time.Hour},
		},
		Notify: NotifyConfig{
			Events: []string{"trade", "liquidation"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validBots enumerates the accepted values for Engine.DefaultBot.
var validBots = map[string]bool{
	"martingale": true,
	"ai":         true,
	"openclaw":   true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Engine
	if c.Engine.TickInterval.Duration <= 0 {
		errs = append(errs, "engine: tick_interval must be positive")
	}
	if !validBots[strings.ToLower(c.Engine.DefaultBot)] {
		errs = append(errs, fmt.Sprintf("engine: unknown default_bot %q (valid: martingale, ai, openclaw)", c.Engine.DefaultBot))
	}
	if c.Engine.Volatility <= 0 || c.Engine.Volatility >= 1 {
		errs = append(errs, fmt.Sprintf("engine: volatility must be in (0, 1), got %g", c.Engine.Volatility))
	}
	if len(c.Engine.Assets) == 0 {
		errs = append(errs, "engine: at least one asset must be configured")
	}
	seen := make(map[string]bool, len(c.Engine.Assets))
	for _, a := range c.Engine.Assets {
		if a.Symbol == "" {
			errs = append(errs, "engine: asset symbol must not be empty")
			continue
		}
		if seen[a.Symbol] {
			errs = append(errs, fmt.Sprintf("engine: duplicate asset %q", a.Symbol))
		}
		seen[a.Symbol] = true
		if a.Price <= 0 {
			errs = append(errs, fmt.Sprintf("engine: asset %s: price must be > 0", a.Symbol))
		}
	}

	// Binance — required when any asset names a live pair.
	if c.Binance.Enabled {
		if c.Binance.BaseURL == "" {
			errs = append(errs, "binance: base_url must not be empty")
		}
		if c.Binance.Streaming && c.Binance.WsURL == "" {
			errs = append(errs, "binance: ws_url must not be empty when streaming is enabled")
		}
	}

	// OpenRouter
	if c.OpenRouter.ApiKey != "" {
		if c.OpenRouter.BaseURL == "" {
			errs = append(errs, "openrouter: base_url must not be empty")
		}
		if c.OpenRouter.Model == "" {
			errs = append(errs, "openrouter: model must not be empty")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Leaderboard
	if c.Leaderboard.PublishInterval.Duration <= 0 {
		errs = append(errs, "leaderboard: publish_interval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
