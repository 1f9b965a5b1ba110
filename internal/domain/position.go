package domain

import "time"

// PositionSide is the direction of an open position. The data model declares
// both sides, but no code path currently opens a short.
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// Position is an open exposure in one asset. The ledger enforces at most one
// open position per asset; a position is created by a BUY and destroyed by
// the matching SELL or by liquidation.
type Position struct {
	ID            string       `json:"id"`
	Asset         string       `json:"asset"`
	EntryPrice    float64      `json:"entryPrice"`
	CurrentPrice  float64      `json:"currentPrice"` // refreshed every tick
	Quantity      float64      `json:"quantity"`
	Side          PositionSide `json:"side"`
	UnrealizedPnL float64      `json:"unrealizedPnL"`
	Fee           float64      `json:"fee"` // fee paid at open
	OpenedAt      time.Time    `json:"openedAt"`
}

// MarkToMarket refreshes the position's current price and unrealized P&L.
func (p *Position) MarkToMarket(price float64) {
	p.CurrentPrice = price
	if p.Side == SideShort {
		p.UnrealizedPnL = (p.EntryPrice - price) * p.Quantity
	} else {
		p.UnrealizedPnL = (price - p.EntryPrice) * p.Quantity
	}
}
