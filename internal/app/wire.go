package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/clawlabs/arenabot/internal/blob/s3"
	"github.com/clawlabs/arenabot/internal/cache/redis"
	"github.com/clawlabs/arenabot/internal/config"
	"github.com/clawlabs/arenabot/internal/crypto"
	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/engine"
	"github.com/clawlabs/arenabot/internal/feed"
	"github.com/clawlabs/arenabot/internal/ledger"
	"github.com/clawlabs/arenabot/internal/notify"
	"github.com/clawlabs/arenabot/internal/platform/openrouter"
	"github.com/clawlabs/arenabot/internal/server"
	"github.com/clawlabs/arenabot/internal/server/handler"
	"github.com/clawlabs/arenabot/internal/service"
	"github.com/clawlabs/arenabot/internal/store/memory"
	"github.com/clawlabs/arenabot/internal/store/postgres"
	"github.com/clawlabs/arenabot/internal/strategy"
)

// Dependencies bundles every domain-level dependency the application needs to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	Ledger      *ledger.Ledger
	Engine      *engine.Engine
	Feed        *feed.MarketFeed
	Registry    *strategy.Registry
	Leaderboard *service.LeaderboardService
	Notifier    *notify.Notifier

	// Server is nil when the HTTP API is disabled.
	Server *server.Server

	// WSFeed streams live prices between ticks; nil unless Binance
	// streaming is enabled with at least one mapped pair.
	WSFeed *feed.BinanceWSFeed
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (thought stream + quote cache) ---
	var (
		priceCache domain.PriceCache
		thoughtBus domain.ThoughtBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		priceCache = redis.NewPriceCache(redisClient)
		thoughtBus = redis.NewThoughtBus(redisClient)
	}

	// --- S3 (trade archive) ---
	var archiver domain.TradeArchiver
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		archiver = s3blob.NewTradeArchiver(s3Client)
	}

	// --- Ledger ---
	assets := make([]domain.MarketAsset, 0, len(cfg.Engine.Assets))
	live := make(map[string]string)
	for _, a := range cfg.Engine.Assets {
		assets = append(assets, domain.MarketAsset{Symbol: a.Symbol, Price: a.Price})
		if a.Pair != "" && cfg.Binance.Enabled {
			live[a.Symbol] = a.Pair
		}
	}
	l := ledger.New(ledger.Config{
		Assets:   assets,
		Bus:      thoughtBus,
		Archiver: archiver,
		Logger:   logger,
	})
	if bot := domain.BotType(strings.ToLower(cfg.Engine.DefaultBot)); bot != "" && bot != domain.BotMartingale {
		l.SetActiveBot(bot)
	}
	deps.Ledger = l

	// --- Market feed ---
	var binance *feed.BinanceClient
	if cfg.Binance.Enabled {
		binance = feed.NewBinanceClient(cfg.Binance.BaseURL, 0)
	}
	deps.Feed = feed.New(feed.Config{
		Ledger:    l,
		Binance:   binance,
		Simulator: feed.NewSimulator(cfg.Engine.Volatility, nil),
		Cache:     priceCache,
		Live:      live,
		Logger:    logger,
	})

	if cfg.Binance.Enabled && cfg.Binance.Streaming && len(live) > 0 {
		deps.WSFeed = feed.NewBinanceWSFeed(cfg.Binance.WsURL, live, l.ApplyPrice, logger)
	}

	// --- Strategies ---
	var advisor *openrouter.Client
	if cfg.OpenRouter.ApiKey != "" {
		advisor = openrouter.NewClient(
			cfg.OpenRouter.BaseURL,
			cfg.OpenRouter.ApiKey,
			cfg.OpenRouter.Model,
			cfg.OpenRouter.Timeout.Duration,
		)
	}

	// A typed nil advisor must not reach the interface field, so the
	// provider is only assigned when configured.
	var provider strategy.DecisionProvider
	if advisor != nil {
		provider = advisor
	}

	reg := strategy.NewRegistry()
	reg.Register(string(domain.BotMartingale), strategy.NewMeanReversion(logger))
	reg.Register(string(domain.BotAI), strategy.NewRemote(provider, logger))
	reg.Register(string(domain.BotOpenClaw), strategy.NewExternal(logger))
	deps.Registry = reg

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Engine ---
	deps.Engine = engine.New(engine.Config{
		Ledger:   l,
		Registry: reg,
		Feed:     deps.Feed,
		Notifier: deps.Notifier,
		Interval: cfg.Engine.TickInterval.Duration,
		Logger:   logger,
	})

	// --- Leaderboard store ---
	var store domain.LeaderboardStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		store = postgres.NewLeaderboardStore(pgClient.Pool())
	} else {
		store = memory.NewLeaderboardStore()
	}
	deps.Leaderboard = service.NewLeaderboardService(l, store, logger)

	// --- HTTP server ---
	if cfg.Server.Enabled {
		var verify func(string) bool
		if cfg.Claw.TokenHash != "" {
			hash := cfg.Claw.TokenHash
			verify = func(presented string) bool {
				return crypto.VerifyToken(presented, hash)
			}
		}

		var trainer handler.StyleTrainer
		if advisor != nil {
			trainer = advisor
		}

		deps.Server = server.NewServer(server.Config{
			Port:            cfg.Server.Port,
			CORSOrigins:     cfg.Server.CORSOrigins,
			APIKey:          cfg.Server.APIKey,
			VerifyClawToken: verify,
		}, server.Handlers{
			Health:      handler.NewHealthHandler(logger),
			Portfolio:   handler.NewPortfolioHandler(l, deps.Engine, logger),
			Tick:        handler.NewTickHandler(deps.Engine, l, logger),
			Decision:    handler.NewDecisionHandler(deps.Engine, l, logger),
			Bot:         handler.NewBotHandler(l, reg, trainer, logger),
			Leaderboard: handler.NewLeaderboardHandler(deps.Leaderboard, logger),
		}, logger)
	}

	return deps, cleanup, nil
}
