// Package ledger owns the virtual portfolio: cash balance, open positions,
// trade history, equity history, and the thought stream. All mutation goes
// through ExecuteTrade, TriggerLiquidation, and the market-data appliers; no
// other component writes these fields. A single mutex serializes writers, so
// interleaved trades can never double-spend the balance or close a position
// twice.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/kelly"
)

const (
	// InitialCapital is the starting virtual balance, and the value the
	// portfolio resets to on liquidation.
	InitialCapital = 100_000

	// FeeRate is charged on the notional of every BUY and SELL.
	FeeRate = 0.001

	// MaxBuyFraction caps a single BUY at 95% of the cash balance so Kelly
	// output can never fully deplete the account.
	MaxBuyFraction = 0.95

	// LiquidationThreshold is the equity level below which the portfolio is
	// force-reset.
	LiquidationThreshold = 90_000

	// Retention caps. Oldest entries are evicted on overflow; this is a
	// deliberate lossy policy that bounds memory.
	MaxTradeHistory  = 500
	MaxEquityHistory = 2016 // ~30 days at 15-minute ticks
	MaxThoughts      = 200
)

// Config wires the ledger's collaborators. Bus and Archiver are optional.
type Config struct {
	Assets   []domain.MarketAsset
	Bus      domain.ThoughtBus
	Archiver domain.TradeArchiver
	Logger   *slog.Logger
}

// Ledger is the single-writer portfolio state machine.
type Ledger struct {
	mu sync.Mutex

	balance      float64
	positions    map[string]*domain.Position
	history      []domain.TradeRecord // newest first
	equity       []domain.EquityPoint // oldest first
	thoughts     []domain.ThoughtEntry
	restartCount int

	assets  map[string]*domain.MarketAsset
	symbols []string // stable iteration order

	activeBot    domain.BotType
	instructions []string
	styleSummary string
	startedAt    time.Time

	bus      domain.ThoughtBus
	archiver domain.TradeArchiver
	logger   *slog.Logger
}

// New creates a Ledger seeded with the initial capital and the given market
// assets.
func New(cfg Config) *Ledger {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	l := &Ledger{
		balance:      InitialCapital,
		positions:    make(map[string]*domain.Position),
		assets:       make(map[string]*domain.MarketAsset, len(cfg.Assets)),
		activeBot:    domain.BotMartingale,
		styleSummary: "Awaiting Calibration",
		startedAt:    time.Now().UTC(),
		bus:          cfg.Bus,
		archiver:     cfg.Archiver,
		logger:       logger.With(slog.String("component", "ledger")),
	}

	for i := range cfg.Assets {
		a := cfg.Assets[i]
		l.assets[a.Symbol] = &a
		l.symbols = append(l.symbols, a.Symbol)
	}

	l.equity = append(l.equity, domain.EquityPoint{
		Timestamp: time.Now().UTC(),
		Equity:    InitialCapital,
	})

	l.mu.Lock()
	pending := l.addThoughtLocked(domain.ThoughtSys, "Arena engine initialized. Trading as guest.")
	l.mu.Unlock()
	l.publish(pending)

	return l
}

// ExecuteTrade applies a BUY or SELL to the portfolio. The execution price is
// resolved from current asset state when available, falling back to the input
// price. Recoverable failures (insufficient balance, SELL without a position)
// leave all state unchanged apart from a WARN thought and return a domain
// error for the caller to log.
func (l *Ledger) ExecuteTrade(input domain.TradeInput, bot domain.BotType) (domain.TradeRecord, error) {
	l.mu.Lock()
	record, pending, err := l.executeTradeLocked(input, bot)
	l.mu.Unlock()
	l.publish(pending)
	return record, err
}

func (l *Ledger) executeTradeLocked(input domain.TradeInput, bot domain.BotType) (domain.TradeRecord, []domain.ThoughtEntry, error) {
	var pending []domain.ThoughtEntry

	price := input.Price
	if asset, ok := l.assets[input.Asset]; ok && asset.Price > 0 {
		price = asset.Price
	}
	if price <= 0 {
		pending = append(pending, l.addThoughtLocked(domain.ThoughtWarn,
			fmt.Sprintf("No price for %s %s. Skipping.", input.Action, input.Asset))...)
		return domain.TradeRecord{}, pending, domain.ErrUnknownAsset
	}

	// Sizing is always computed and logged first, even for SELL, so the
	// audit trail is uniform; it only governs BUY notional.
	sizing := kelly.Size(input.W, input.R, l.balance)
	pending = append(pending, l.addThoughtLocked(domain.ThoughtKelly,
		kelly.FormatLog(input.W, input.R, sizing))...)

	switch input.Action {
	case domain.ActionBuy:
		if _, exists := l.positions[input.Asset]; exists {
			pending = append(pending, l.addThoughtLocked(domain.ThoughtWarn,
				fmt.Sprintf("Position already open for %s. Skipping BUY.", input.Asset))...)
			return domain.TradeRecord{}, pending, domain.ErrPositionExists
		}

		dollarSize := math.Min(sizing.DollarSize, l.balance*MaxBuyFraction)
		quantity := dollarSize / price
		fee := dollarSize * FeeRate

		newBalance := l.balance - dollarSize - fee
		if newBalance < 0 {
			pending = append(pending, l.addThoughtLocked(domain.ThoughtWarn,
				fmt.Sprintf("Insufficient balance for BUY %s. Skipping.", input.Asset))...)
			return domain.TradeRecord{}, pending, domain.ErrInsufficientBalance
		}

		now := time.Now().UTC()
		pos := &domain.Position{
			ID:           uuid.NewString(),
			Asset:        input.Asset,
			EntryPrice:   price,
			CurrentPrice: price,
			Quantity:     quantity,
			Side:         domain.SideLong,
			Fee:          fee,
			OpenedAt:     now,
		}

		record := domain.TradeRecord{
			ID:           uuid.NewString(),
			Timestamp:    now,
			Asset:        input.Asset,
			Action:       domain.ActionBuy,
			Price:        price,
			Quantity:     quantity,
			DollarSize:   dollarSize,
			Fee:          fee,
			PnL:          0,
			BalanceAfter: newBalance,
			Reasoning:    input.Reasoning,
			KellyPct:     sizing.KellyPct,
			QuarterPct:   sizing.QuarterPct,
			W:            input.W,
			R:            input.R,
			BotType:      bot,
		}

		l.balance = newBalance
		l.positions[input.Asset] = pos
		l.appendTradeLocked(record)
		pending = append(pending, l.addThoughtLocked(domain.ThoughtTrade,
			fmt.Sprintf("BUY %.4f %s @ $%.2f | Size: $%.0f | Fee: $%.2f",
				quantity, input.Asset, price, dollarSize, fee))...)
		l.snapshotEquityLocked()
		return record, pending, nil

	case domain.ActionSell:
		pos, exists := l.positions[input.Asset]
		if !exists || pos.Side != domain.SideLong {
			pending = append(pending, l.addThoughtLocked(domain.ThoughtWarn,
				fmt.Sprintf("No open position for SELL %s. Skipping.", input.Asset))...)
			return domain.TradeRecord{}, pending, domain.ErrNoOpenPosition
		}

		realized := (price - pos.EntryPrice) * pos.Quantity
		proceeds := pos.Quantity * price
		fee := proceeds * FeeRate
		newBalance := l.balance + proceeds - fee

		record := domain.TradeRecord{
			ID:           uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Asset:        input.Asset,
			Action:       domain.ActionSell,
			Price:        price,
			Quantity:     pos.Quantity,
			DollarSize:   proceeds,
			Fee:          fee,
			PnL:          realized,
			BalanceAfter: newBalance,
			Reasoning:    input.Reasoning,
			KellyPct:     sizing.KellyPct,
			QuarterPct:   sizing.QuarterPct,
			W:            input.W,
			R:            input.R,
			BotType:      bot,
		}

		l.balance = newBalance
		delete(l.positions, input.Asset)
		l.appendTradeLocked(record)
		pending = append(pending, l.addThoughtLocked(domain.ThoughtTrade,
			fmt.Sprintf("SELL %.4f %s @ $%.2f | PnL: %+.2f | Fee: $%.2f",
				record.Quantity, input.Asset, price, realized, fee))...)
		l.snapshotEquityLocked()
		return record, pending, nil

	default:
		pending = append(pending, l.addThoughtLocked(domain.ThoughtWarn,
			fmt.Sprintf("Unknown trade action %q. Skipping.", input.Action))...)
		return domain.TradeRecord{}, pending, fmt.Errorf("ledger: unknown action %q", input.Action)
	}
}

// TriggerLiquidation hard-resets the portfolio: balance back to the initial
// capital, all open positions discarded (not sold at market), restart counter
// incremented. The liquidation record's PnL captures equity-at-liquidation
// minus the initial capital.
func (l *Ledger) TriggerLiquidation() domain.TradeRecord {
	l.mu.Lock()

	equity := l.equityLocked()
	restart := l.restartCount + 1

	record := domain.TradeRecord{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Asset:        "PORTFOLIO",
		Action:       domain.ActionLiquidation,
		DollarSize:   equity,
		PnL:          equity - InitialCapital,
		BalanceAfter: InitialCapital,
		Reasoning:    fmt.Sprintf("Portfolio equity dropped to $%.0f, below the 90%% threshold.", equity),
		BotType:      l.activeBot,
	}

	l.balance = InitialCapital
	l.positions = make(map[string]*domain.Position)
	l.restartCount = restart
	l.appendTradeLocked(record)

	pending := l.addThoughtLocked(domain.ThoughtLiquidation,
		fmt.Sprintf("Portfolio equity $%.0f < $%d. RESET. Restart #%d",
			equity, LiquidationThreshold, restart))
	l.snapshotEquityLocked()

	l.mu.Unlock()
	l.publish(pending)
	return record
}

// ApplyQuote replaces an asset's market state with live feed data and marks
// open positions to the new price.
func (l *Ledger) ApplyQuote(symbol string, price, ma30, change24h float64, history []float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[symbol]
	if !ok {
		return
	}
	asset.Price = price
	asset.MA30 = ma30
	asset.Change24h = change24h
	if len(history) > 0 {
		asset.PriceHistory = append(asset.PriceHistory[:0], history...)
	}
	asset.LiveAt = time.Now().UTC()
	l.markToMarketLocked()
}

// ApplyPrice pushes a single simulated or streamed price into the asset's
// rolling window, recomputing the moving average, then marks open positions.
func (l *Ledger) ApplyPrice(symbol string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	asset, ok := l.assets[symbol]
	if !ok {
		return
	}
	asset.PushPrice(price)
	if asset.MA30 > 0 {
		asset.Change24h = (price - asset.MA30) / asset.MA30 * 100
	}
	l.markToMarketLocked()
}

func (l *Ledger) markToMarketLocked() {
	for sym, pos := range l.positions {
		if asset, ok := l.assets[sym]; ok && asset.Price > 0 {
			pos.MarkToMarket(asset.Price)
		}
	}
}

// RecordEquity appends an equity snapshot; called once per tick.
func (l *Ledger) RecordEquity() domain.EquityPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotEquityLocked()
}

// Equity returns balance plus the sum of unrealized P&L over open positions.
// This is the single authoritative performance metric.
func (l *Ledger) Equity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.equityLocked()
}

func (l *Ledger) equityLocked() float64 {
	equity := l.balance
	for _, pos := range l.positions {
		equity += pos.UnrealizedPnL
	}
	return equity
}

func (l *Ledger) snapshotEquityLocked() domain.EquityPoint {
	point := domain.EquityPoint{
		Timestamp: time.Now().UTC(),
		Equity:    l.equityLocked(),
	}
	l.equity = append(l.equity, point)
	if overflow := len(l.equity) - MaxEquityHistory; overflow > 0 {
		l.equity = append(l.equity[:0], l.equity[overflow:]...)
	}
	return point
}

// appendTradeLocked prepends a record (newest first) and evicts past the cap.
// Evicted records are handed to the archiver, if configured.
func (l *Ledger) appendTradeLocked(record domain.TradeRecord) {
	l.history = append([]domain.TradeRecord{record}, l.history...)
	if len(l.history) > MaxTradeHistory {
		evicted := append([]domain.TradeRecord(nil), l.history[MaxTradeHistory:]...)
		l.history = l.history[:MaxTradeHistory]
		if l.archiver != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := l.archiver.Archive(ctx, evicted); err != nil {
					l.logger.Warn("trade archive failed",
						slog.Int("count", len(evicted)),
						slog.String("error", err.Error()),
					)
				}
			}()
		}
	}
}

// AddThought appends an entry to the bounded thought stream and fans it out.
func (l *Ledger) AddThought(level domain.ThoughtLevel, message string) {
	l.mu.Lock()
	pending := l.addThoughtLocked(level, message)
	l.mu.Unlock()
	l.publish(pending)
}

func (l *Ledger) addThoughtLocked(level domain.ThoughtLevel, message string) []domain.ThoughtEntry {
	entry := domain.ThoughtEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	}
	l.thoughts = append(l.thoughts, entry)
	if overflow := len(l.thoughts) - MaxThoughts; overflow > 0 {
		l.thoughts = append(l.thoughts[:0], l.thoughts[overflow:]...)
	}
	return []domain.ThoughtEntry{entry}
}

// publish fans entries out to the thought bus outside the ledger lock.
// Failures are logged and dropped; the bus is observability, not state.
func (l *Ledger) publish(entries []domain.ThoughtEntry) {
	if l.bus == nil || len(entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, e := range entries {
		if err := l.bus.Publish(ctx, e); err != nil {
			l.logger.Warn("thought publish failed", slog.String("error", err.Error()))
			return
		}
	}
}
