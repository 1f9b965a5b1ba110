// Package engine drives the trading loop: one tick every interval, the same
// code path for timer ticks and manual triggers, and a hard liquidation gate
// ahead of any strategy decision.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/ledger"
	"github.com/clawlabs/arenabot/internal/strategy"
)

// DefaultTickInterval matches the cadence of the market feed's coarser
// moving-average window.
const DefaultTickInterval = 15 * time.Minute

// MarketFeed refreshes asset prices before each decision. Implementations
// must tolerate upstream outages; a refresh error leaves last-known prices in
// place and the tick proceeds.
type MarketFeed interface {
	Refresh(ctx context.Context) error
}

// Notifier receives trade and liquidation events. All methods are
// fire-and-forget from the engine's perspective.
type Notifier interface {
	TradeExecuted(ctx context.Context, record domain.TradeRecord)
	Liquidated(ctx context.Context, record domain.TradeRecord)
}

// Engine owns the tick loop. Ticks are serialized: a manual trigger landing
// mid-tick waits for the running tick to finish.
type Engine struct {
	ledger   *ledger.Ledger
	registry *strategy.Registry
	feed     MarketFeed
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger

	tickMu     sync.Mutex
	stateMu    sync.Mutex
	lastTickAt time.Time
}

// Config wires the engine.
type Config struct {
	Ledger   *ledger.Ledger
	Registry *strategy.Registry
	Feed     MarketFeed
	Notifier Notifier
	Interval time.Duration
	Logger   *slog.Logger
}

// New creates the engine. Interval defaults to DefaultTickInterval.
func New(cfg Config) *Engine {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		ledger:   cfg.Ledger,
		registry: cfg.Registry,
		feed:     cfg.Feed,
		notifier: cfg.Notifier,
		interval: interval,
		logger:   logger.With(slog.String("component", "engine")),
	}
}

// Run ticks immediately, then on every interval until the context ends.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started", slog.Duration("interval", e.interval))

	if err := e.Tick(ctx); err != nil {
		e.logger.Error("tick failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				e.logger.Error("tick failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Tick runs one full cycle: refresh prices, check the liquidation gate,
// dispatch the active strategy, snapshot equity. Manual triggers call this
// directly; there is no separate path.
func (e *Engine) Tick(ctx context.Context) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if e.feed != nil {
		if err := e.feed.Refresh(ctx); err != nil {
			// Stale prices are preferable to a skipped tick.
			e.logger.Warn("feed refresh failed, using last-known prices",
				slog.String("error", err.Error()),
			)
		}
	}

	equity := e.ledger.Equity()
	bot := e.ledger.ActiveBot()

	e.logger.Info("tick",
		slog.Float64("equity", equity),
		slog.Float64("balance", e.ledger.Balance()),
		slog.String("bot", string(bot)),
	)

	if equity < ledger.LiquidationThreshold {
		record := e.ledger.TriggerLiquidation()
		e.logger.Warn("portfolio liquidated",
			slog.Float64("equity", equity),
			slog.Float64("pnl", record.PnL),
			slog.Int("restart", e.ledger.RestartCount()),
		)
		if e.notifier != nil {
			e.notifier.Liquidated(ctx, record)
		}
		// TriggerLiquidation already snapshots the reset equity; the tick
		// ends here without the usual closing snapshot or clock update.
		return nil
	}

	strat, err := e.registry.Get(string(bot))
	if err != nil {
		e.finishTick()
		return fmt.Errorf("engine: resolve strategy: %w", err)
	}

	decision, err := strat.Decide(ctx, e.ledger)
	if err != nil {
		e.ledger.AddThought(domain.ThoughtWarn,
			fmt.Sprintf("%s strategy failed: %v. Holding.", strat.Name(), err))
		e.finishTick()
		return nil
	}

	e.applyDecision(ctx, decision, bot)
	e.finishTick()
	return nil
}

func (e *Engine) finishTick() {
	e.ledger.RecordEquity()
	e.stateMu.Lock()
	e.lastTickAt = time.Now().UTC()
	e.stateMu.Unlock()
}

// applyDecision routes a decision into the ledger. Rejected trades are
// already logged to the thought stream by the ledger; the engine only adds
// commentary for holds and forwards executions to the notifier.
func (e *Engine) applyDecision(ctx context.Context, decision domain.TradeDecision, bot domain.BotType) {
	if decision.StyleSummary != "" {
		e.ledger.SetStyleSummary(decision.StyleSummary)
	}

	switch decision.Action {
	case domain.DecisionHold:
		if decision.Reasoning != "" {
			e.ledger.AddThought(thoughtLevelFor(bot), decision.Reasoning)
		}

	case domain.DecisionBuy, domain.DecisionSell:
		action := domain.ActionBuy
		if decision.Action == domain.DecisionSell {
			action = domain.ActionSell
		}
		record, err := e.ledger.ExecuteTrade(domain.TradeInput{
			Asset:     decision.Asset,
			Action:    action,
			W:         decision.W,
			R:         decision.R,
			Reasoning: decision.Reasoning,
		}, bot)
		if err != nil {
			e.logger.Warn("trade rejected",
				slog.String("asset", decision.Asset),
				slog.String("action", string(action)),
				slog.String("error", err.Error()),
			)
			return
		}
		if e.notifier != nil {
			e.notifier.TradeExecuted(ctx, record)
		}

	default:
		e.logger.Warn("unknown decision action", slog.String("action", string(decision.Action)))
	}
}

func thoughtLevelFor(bot domain.BotType) domain.ThoughtLevel {
	if bot == domain.BotAI {
		return domain.ThoughtAI
	}
	return domain.ThoughtSys
}

// ExecuteDecision applies an out-of-band command (the OpenClaw path) through
// the same routing as a tick decision, after clamping. It does not advance
// the tick clock.
func (e *Engine) ExecuteDecision(ctx context.Context, decision domain.TradeDecision) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	decision.Clamp()
	e.applyDecision(ctx, decision, e.ledger.ActiveBot())
}

// LastTickAt returns when the last tick completed, zero before the first.
func (e *Engine) LastTickAt() time.Time {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.lastTickAt
}

// Interval returns the configured tick cadence.
func (e *Engine) Interval() time.Duration { return e.interval }

// NextTickAt estimates when the next timer tick fires.
func (e *Engine) NextTickAt() time.Time {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.lastTickAt.IsZero() {
		return time.Time{}
	}
	return e.lastTickAt.Add(e.interval)
}
