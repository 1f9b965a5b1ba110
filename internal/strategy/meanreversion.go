package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/kelly"
)

const (
	// DeviationThreshold is the fractional distance from the 30-period
	// moving average that triggers a signal.
	DeviationThreshold = 0.02

	// SellLookback bounds how many recent closed trades feed the W/R
	// derivation.
	SellLookback = 20
)

// Signal is one candidate action produced by mean-reversion analysis.
type Signal struct {
	Asset     string
	Action    domain.DecisionAction
	Deviation float64
	Price     float64
	MA30      float64
}

// Analyze scans every asset for a mean-reversion entry or exit. A BUY
// candidate requires price below the moving average by the threshold and no
// open position; a SELL candidate requires price above by the threshold and
// an open position. Assets without enough history produce nothing.
func Analyze(assets []domain.MarketAsset, hasPosition func(string) bool) []Signal {
	var signals []Signal
	for _, asset := range assets {
		if asset.MA30 == 0 || asset.Price <= 0 {
			continue
		}
		dev := asset.Deviation()
		switch {
		case dev <= -DeviationThreshold && !hasPosition(asset.Symbol):
			signals = append(signals, Signal{
				Asset:     asset.Symbol,
				Action:    domain.DecisionBuy,
				Deviation: dev,
				Price:     asset.Price,
				MA30:      asset.MA30,
			})
		case dev >= DeviationThreshold && hasPosition(asset.Symbol):
			signals = append(signals, Signal{
				Asset:     asset.Symbol,
				Action:    domain.DecisionSell,
				Deviation: dev,
				Price:     asset.Price,
				MA30:      asset.MA30,
			})
		}
	}
	return signals
}

// Strongest returns the signal with the largest absolute deviation, or false
// when no candidate exists.
func Strongest(signals []Signal) (Signal, bool) {
	if len(signals) == 0 {
		return Signal{}, false
	}
	best := signals[0]
	for _, s := range signals[1:] {
		if math.Abs(s.Deviation) > math.Abs(best.Deviation) {
			best = s
		}
	}
	return best, true
}

// MeanReversion is the built-in rule-based strategy: buy dips below the
// 30-period moving average, sell rips above it, one position per asset.
type MeanReversion struct {
	logger *slog.Logger
}

// NewMeanReversion creates the rule-based strategy.
func NewMeanReversion(logger *slog.Logger) *MeanReversion {
	return &MeanReversion{
		logger: logger.With(slog.String("strategy", "martingale")),
	}
}

// Name returns the strategy identifier.
func (m *MeanReversion) Name() string { return string(domain.BotMartingale) }

// Decide picks the strongest mean-reversion signal across all assets and
// attaches W and R derived from the portfolio's recent closed trades. When
// nothing deviates far enough it holds.
func (m *MeanReversion) Decide(_ context.Context, view PortfolioView) (domain.TradeDecision, error) {
	signals := Analyze(view.Assets(), view.HasPosition)
	signal, ok := Strongest(signals)
	if !ok {
		return Hold("No asset deviates more than 2% from its 30-period average. Holding."), nil
	}

	w, r := DeriveWR(view)

	var reasoning string
	if signal.Action == domain.DecisionBuy {
		reasoning = fmt.Sprintf("%s is %.2f%% below its 30-period average ($%.2f vs $%.2f). Buying the dip. W=%.2f, R=%.2f.",
			signal.Asset, -signal.Deviation*100, signal.Price, signal.MA30, w, r)
	} else {
		reasoning = fmt.Sprintf("%s is %.2f%% above its 30-period average ($%.2f vs $%.2f). Taking profit. W=%.2f, R=%.2f.",
			signal.Asset, signal.Deviation*100, signal.Price, signal.MA30, w, r)
	}

	m.logger.Info("mean reversion signal",
		slog.String("asset", signal.Asset),
		slog.String("action", string(signal.Action)),
		slog.Float64("deviation", signal.Deviation),
		slog.Float64("w", w),
		slog.Float64("r", r),
	)

	return domain.TradeDecision{
		Action:    signal.Action,
		Asset:     signal.Asset,
		Reasoning: reasoning,
		W:         w,
		R:         r,
	}, nil
}

// DeriveWR computes the Kelly inputs from the most recent closed trades
// across all assets. Sparse history falls back to the neutral priors inside
// the kelly package.
func DeriveWR(view PortfolioView) (w, r float64) {
	outcomes, records := view.RecentSellOutcomes(SellLookback)
	return kelly.DeriveWinRate(outcomes), kelly.DeriveRewardRisk(records)
}
