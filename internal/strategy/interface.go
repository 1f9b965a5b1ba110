// Package strategy contains the decision-makers that drive the trading
// engine. Each strategy inspects a read-only view of the portfolio and
// returns at most one decision per tick; execution and risk accounting stay
// in the ledger.
package strategy

import (
	"context"

	"github.com/clawlabs/arenabot/internal/domain"
)

// PortfolioView is the read-only slice of portfolio state a strategy is
// allowed to see. *ledger.Ledger satisfies it.
type PortfolioView interface {
	Assets() []domain.MarketAsset
	OpenPositions() []domain.Position
	HasPosition(symbol string) bool
	Balance() float64
	Equity() float64
	Trades(limit int) []domain.TradeRecord
	RecentSellOutcomes(limit int) ([]bool, []domain.TradeRecord)
	Instructions() []string
}

// Strategy produces one trade decision per tick. A HOLD decision is the
// normal no-action outcome, not an error; errors are reserved for failures
// the engine should log.
type Strategy interface {
	Name() string
	Decide(ctx context.Context, view PortfolioView) (domain.TradeDecision, error)
}

// Hold builds the no-action decision with the given commentary.
func Hold(reason string) domain.TradeDecision {
	return domain.TradeDecision{
		Action:    domain.DecisionHold,
		Reasoning: reason,
	}
}
