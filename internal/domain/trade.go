package domain

import "time"

// TradeAction is the kind of executed portfolio action.
type TradeAction string

const (
	ActionBuy         TradeAction = "BUY"
	ActionSell        TradeAction = "SELL"
	ActionLiquidation TradeAction = "LIQUIDATION"
)

// BotType identifies which strategy produced a trade.
type BotType string

const (
	BotMartingale BotType = "martingale"
	BotAI         BotType = "ai"
	BotOpenClaw   BotType = "openclaw"
)

// TradeRecord is an immutable log entry for every executed action. The ledger
// retains the most recent records up to a fixed cap; older entries are
// evicted (and optionally archived to blob storage).
type TradeRecord struct {
	ID           string      `json:"id"`
	Timestamp    time.Time   `json:"timestamp"`
	Asset        string      `json:"asset"`
	Action       TradeAction `json:"action"`
	Price        float64     `json:"price"`
	Quantity     float64     `json:"quantity"`
	DollarSize   float64     `json:"dollarSize"`
	Fee          float64     `json:"fee"` // 0.1% of notional
	PnL          float64     `json:"pnl"` // realized; 0 for BUY
	BalanceAfter float64     `json:"balanceAfter"`
	Reasoning    string      `json:"reasoning"`
	KellyPct     float64     `json:"kellyPct"`
	QuarterPct   float64     `json:"quarterKellyPct"`
	W            float64     `json:"w"`
	R            float64     `json:"r"`
	BotType      BotType     `json:"botType"`
}

// TradeInput is the caller-facing order: which asset to trade, in which
// direction, and the W/R confidence figures that drive Kelly sizing. Price is
// resolved by the ledger from current asset state at execution time.
type TradeInput struct {
	Asset     string      `json:"asset"`
	Action    TradeAction `json:"action"`
	Price     float64     `json:"price"`
	W         float64     `json:"w"`
	R         float64     `json:"r"`
	Reasoning string      `json:"reasoning"`
}
