package domain

import "time"

// LeaderboardEntry is one published ranking row. Entries are keyed by wallet
// address; guests trade unranked and never appear here.
type LeaderboardEntry struct {
	Rank          int           `json:"rank"`
	WalletAddress string        `json:"walletAddress"`
	BotName       string        `json:"botName"`
	Balance       float64       `json:"balance"`
	PnLDollar     float64       `json:"pnlDollar"`
	PnLPercent    float64       `json:"pnlPercent"`
	DaysLive      int           `json:"daysLive"`
	TotalVolume   float64       `json:"totalVolume"`
	Fees          float64       `json:"fees"`
	WinRate       float64       `json:"winRate"` // % of SELL trades that were profitable
	BiggestWin    float64       `json:"biggestWin"`
	BiggestLoss   float64       `json:"biggestLoss"` // stored as negative
	TradeCount    int           `json:"tradeCount"`
	StyleSummary  string        `json:"styleSummary"`
	RestartCount  int           `json:"restartCount"`
	EquityHistory []EquityPoint `json:"equityHistory"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
