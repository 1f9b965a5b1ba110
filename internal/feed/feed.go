// Package feed supplies market prices to the ledger: live Binance data for
// mapped symbols, a random-walk simulator for the rest, and a Redis-backed
// last-known-quote cache that keeps ticks alive through upstream outages.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/ledger"
)

// MarketFeed refreshes every tracked asset once per tick.
type MarketFeed struct {
	ledger    *ledger.Ledger
	binance   *BinanceClient
	simulator *Simulator
	cache     domain.PriceCache
	live      map[string]string // ledger symbol -> Binance pair
	logger    *slog.Logger
}

// Config wires the feed. Binance and Cache are optional; symbols without a
// live mapping are always simulated.
type Config struct {
	Ledger    *ledger.Ledger
	Binance   *BinanceClient
	Simulator *Simulator
	Cache     domain.PriceCache
	Live      map[string]string
	Logger    *slog.Logger
}

// New creates the feed.
func New(cfg Config) *MarketFeed {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sim := cfg.Simulator
	if sim == nil {
		sim = NewSimulator(DefaultVolatility, nil)
	}
	return &MarketFeed{
		ledger:    cfg.Ledger,
		binance:   cfg.Binance,
		simulator: sim,
		cache:     cfg.Cache,
		live:      cfg.Live,
		logger:    logger.With(slog.String("component", "feed")),
	}
}

// Refresh updates every asset. Live symbols fall back to the cached quote,
// then to simulation, so a Binance outage degrades rather than stalls the
// portfolio. The returned error reports the first live-fetch failure for the
// caller to log; prices are still advanced.
func (f *MarketFeed) Refresh(ctx context.Context) error {
	var firstErr error
	for _, asset := range f.ledger.Assets() {
		pair, isLive := f.live[asset.Symbol]
		if !isLive || f.binance == nil {
			f.simulate(asset.Symbol, asset.Price)
			continue
		}

		quote, err := f.binance.FetchQuote(ctx, asset.Symbol, pair)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("feed: refresh %s: %w", asset.Symbol, err)
			}
			f.fallback(ctx, asset)
			continue
		}

		f.ledger.ApplyQuote(asset.Symbol, quote.Price, quote.MA30, quote.Change24h, quote.History)
		if f.cache != nil {
			if err := f.cache.SetQuote(ctx, asset.Symbol, quote.Price, quote.MA30, quote.Change24h, time.Now().UTC()); err != nil {
				f.logger.Warn("quote cache write failed",
					slog.String("symbol", asset.Symbol),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return firstErr
}

// fallback restores the last cached quote for a live symbol, or walks the
// current price when no cache entry exists.
func (f *MarketFeed) fallback(ctx context.Context, asset domain.MarketAsset) {
	if f.cache != nil {
		price, ma30, change24h, ts, err := f.cache.GetQuote(ctx, asset.Symbol)
		if err == nil && price > 0 {
			f.logger.Info("using cached quote",
				slog.String("symbol", asset.Symbol),
				slog.Time("cached_at", ts),
			)
			f.ledger.ApplyQuote(asset.Symbol, price, ma30, change24h, nil)
			return
		}
	}
	f.simulate(asset.Symbol, asset.Price)
}

func (f *MarketFeed) simulate(symbol string, price float64) {
	if next := f.simulator.Step(price); next > 0 {
		f.ledger.ApplyPrice(symbol, next)
	}
}
