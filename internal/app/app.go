// Package app provides the top-level application lifecycle for the arena
// daemon. It wires together all dependencies (ledger, strategies, market
// feeds, stores, notifications, HTTP API) and runs them until the context is
// cancelled.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clawlabs/arenabot/internal/config"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the tick
// loop and its supporting goroutines, and blocks until the context is
// cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Duration("tick_interval", a.cfg.Engine.TickInterval.Duration),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	// Tick loop.
	g.Go(func() error {
		return deps.Engine.Run(ctx)
	})

	// Live price stream between ticks.
	if deps.WSFeed != nil {
		g.Go(func() error {
			defer deps.WSFeed.Close()
			return deps.WSFeed.Run(ctx)
		})
	}

	// Leaderboard republish loop.
	g.Go(func() error {
		return deps.Leaderboard.Run(ctx, a.cfg.Leaderboard.PublishInterval.Duration)
	})

	// HTTP API.
	if deps.Server != nil {
		g.Go(func() error {
			return deps.Server.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return deps.Server.Shutdown(shutCtx)
		})
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
