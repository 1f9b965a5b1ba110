package domain

import (
	"context"
	"time"
)

// LeaderboardStore persists published ranking entries.
type LeaderboardStore interface {
	Upsert(ctx context.Context, entry LeaderboardEntry) error
	List(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// PriceCache retains the last-known feed values so the engine can keep
// ticking through feed outages.
type PriceCache interface {
	SetQuote(ctx context.Context, symbol string, price, ma30, change24h float64, ts time.Time) error
	GetQuote(ctx context.Context, symbol string) (price, ma30, change24h float64, ts time.Time, err error)
}

// ThoughtBus fans thought-stream entries out to external consumers (the UI
// tails it). Implementations must bound retention; publish failures are the
// publisher's to log, never to propagate.
type ThoughtBus interface {
	Publish(ctx context.Context, entry ThoughtEntry) error
}

// TradeArchiver receives trade records evicted from the bounded in-memory
// history. The retention cap is a deliberate lossy policy; archiving is the
// optional escape hatch for completeness.
type TradeArchiver interface {
	Archive(ctx context.Context, trades []TradeRecord) error
}
