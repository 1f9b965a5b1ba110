// Package kelly implements Kelly-criterion position sizing and the W/R
// derivation helpers used by the trading strategies.
//
// Formula:
//
//	kelly   = W - (1-W)/R
//	quarter = max(0, kelly * 0.25)
//	size    = balance * quarter
//
// The quartering is a fixed conservative multiplier that bounds the maximum
// risk per trade; it is not configurable per trade.
package kelly

import (
	"fmt"

	"github.com/clawlabs/arenabot/internal/domain"
)

// Result is the derived sizing for one trade. It is computed on demand and
// never stored.
type Result struct {
	KellyPct   float64 `json:"kellyPct"`
	QuarterPct float64 `json:"quarterKellyPct"`
	DollarSize float64 `json:"dollarSize"`
}

// Size computes the Kelly position size for win probability w, reward/risk
// ratio r, and available balance. A non-positive r is a legitimate "do not
// size this trade" signal, not an error: the result is all zeros.
func Size(w, r, balance float64) Result {
	if r <= 0 {
		return Result{}
	}

	kellyPct := w - (1-w)/r
	quarterPct := kellyPct * 0.25
	if quarterPct < 0 {
		// Unfavorable bet: size to zero rather than go short.
		quarterPct = 0
	}

	return Result{
		KellyPct:   kellyPct,
		QuarterPct: quarterPct,
		DollarSize: balance * quarterPct,
	}
}

// FormatLog renders a sizing result as the canonical audit line, e.g.
//
//	W=0.60, R=1.50 -> Kelly=33.3% -> Quarter-Kelly=8.3% -> Size=$8333
func FormatLog(w, r float64, res Result) string {
	return fmt.Sprintf("W=%.2f, R=%.2f -> Kelly=%.1f%% -> Quarter-Kelly=%.1f%% -> Size=$%.0f",
		w, r, res.KellyPct*100, res.QuarterPct*100, res.DollarSize)
}

// DeriveWinRate returns the fraction of true outcomes. An empty history
// yields the neutral prior 0.5.
func DeriveWinRate(outcomes []bool) float64 {
	if len(outcomes) == 0 {
		return 0.5
	}
	wins := 0
	for _, won := range outcomes {
		if won {
			wins++
		}
	}
	return float64(wins) / float64(len(outcomes))
}

// DeriveRewardRisk returns average-win / average-loss magnitude over trades
// with nonzero P&L and positive size. It returns the neutral 1.0 when fewer
// than two qualifying trades exist or either side is empty, so sparse history
// never produces a division by zero or an overreaction.
func DeriveRewardRisk(trades []domain.TradeRecord) float64 {
	var closed []domain.TradeRecord
	for _, t := range trades {
		if t.PnL != 0 && t.DollarSize > 0 {
			closed = append(closed, t)
		}
	}
	if len(closed) < 2 {
		return 1.0
	}

	var winSum, lossSum float64
	var winCount, lossCount int
	for _, t := range closed {
		if t.PnL > 0 {
			winSum += t.PnL
			winCount++
		} else {
			lossSum += -t.PnL
			lossCount++
		}
	}
	if winCount == 0 || lossCount == 0 {
		return 1.0
	}

	avgWin := winSum / float64(winCount)
	avgLoss := lossSum / float64(lossCount)
	if avgLoss == 0 {
		return 1.0
	}
	return avgWin / avgLoss
}
