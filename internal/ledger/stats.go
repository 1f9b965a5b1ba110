package ledger

import (
	"time"

	"github.com/clawlabs/arenabot/internal/domain"
)

// Stats aggregates lifetime performance over the retained trade history.
// Liquidation records count toward win rate and biggest loss but not volume
// or fees, since no order was executed for them.
type Stats struct {
	Equity       float64 `json:"equity"`
	Balance      float64 `json:"balance"`
	PnLDollar    float64 `json:"pnlDollar"`
	PnLPercent   float64 `json:"pnlPercent"`
	TotalVolume  float64 `json:"totalVolume"`
	TotalFees    float64 `json:"totalFees"`
	WinRate      float64 `json:"winRate"`
	BiggestWin   float64 `json:"biggestWin"`
	BiggestLoss  float64 `json:"biggestLoss"`
	TradeCount   int     `json:"tradeCount"`
	DaysLive     float64 `json:"daysLive"`
	RestartCount int     `json:"restartCount"`
}

// Stats computes the aggregate snapshot under one lock acquisition.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	equity := l.equityLocked()
	s := Stats{
		Equity:       equity,
		Balance:      l.balance,
		PnLDollar:    equity - InitialCapital,
		PnLPercent:   (equity - InitialCapital) / InitialCapital * 100,
		TradeCount:   len(l.history),
		DaysLive:     time.Since(l.startedAt).Hours() / 24,
		RestartCount: l.restartCount,
	}

	var wins, closed int
	for _, t := range l.history {
		if t.Action != domain.ActionLiquidation {
			s.TotalVolume += t.DollarSize
			s.TotalFees += t.Fee
		}
		if t.PnL != 0 {
			closed++
			if t.PnL > 0 {
				wins++
			}
			if t.PnL > s.BiggestWin {
				s.BiggestWin = t.PnL
			}
			if t.PnL < s.BiggestLoss {
				s.BiggestLoss = t.PnL
			}
		}
	}
	if closed > 0 {
		s.WinRate = float64(wins) / float64(closed)
	}
	return s
}

// RecentSellOutcomes returns win/loss booleans and records for the most
// recent SELL trades across every asset, up to limit, newest first. The
// lookback is deliberately system-wide: the bot's track record is one pool,
// not a per-symbol ledger, and strategies derive W and R from it.
func (l *Ledger) RecentSellOutcomes(limit int) ([]bool, []domain.TradeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var outcomes []bool
	var records []domain.TradeRecord
	for _, t := range l.history {
		if t.Action != domain.ActionSell {
			continue
		}
		outcomes = append(outcomes, t.PnL > 0)
		records = append(records, t)
		if limit > 0 && len(outcomes) >= limit {
			break
		}
	}
	return outcomes, records
}
