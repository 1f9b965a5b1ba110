package strategy

import (
	"context"
	"log/slog"

	"github.com/clawlabs/arenabot/internal/domain"
)

// DecisionRequest is the portfolio snapshot shipped to a remote advisor.
type DecisionRequest struct {
	Assets       []domain.MarketAsset `json:"assets"`
	Positions    []domain.Position    `json:"positions"`
	Balance      float64              `json:"balance"`
	Equity       float64              `json:"equity"`
	RecentTrades []domain.TradeRecord `json:"recentTrades"`
	Instructions []string             `json:"instructions,omitempty"`
}

// DecisionProvider turns a portfolio snapshot into a trade decision. The
// OpenRouter client implements it.
type DecisionProvider interface {
	Decide(ctx context.Context, req DecisionRequest) (domain.TradeDecision, error)
}

// Remote delegates each tick's decision to an LLM advisor. Advisor failures
// never fail the tick: they degrade to HOLD so the engine keeps its cadence.
type Remote struct {
	provider DecisionProvider
	logger   *slog.Logger
}

// NewRemote creates the advisor-backed strategy.
func NewRemote(provider DecisionProvider, logger *slog.Logger) *Remote {
	return &Remote{
		provider: provider,
		logger:   logger.With(slog.String("strategy", "ai")),
	}
}

func (r *Remote) Name() string { return string(domain.BotAI) }

// Decide ships the snapshot to the advisor and clamps the returned W and R
// into their safe ranges before handing the decision to the engine.
func (r *Remote) Decide(ctx context.Context, view PortfolioView) (domain.TradeDecision, error) {
	if r.provider == nil {
		return Hold("No advisor configured. Holding."), nil
	}

	req := DecisionRequest{
		Assets:       view.Assets(),
		Positions:    view.OpenPositions(),
		Balance:      view.Balance(),
		Equity:       view.Equity(),
		RecentTrades: view.Trades(10),
		Instructions: view.Instructions(),
	}

	decision, err := r.provider.Decide(ctx, req)
	if err != nil {
		r.logger.Warn("advisor unavailable, holding",
			slog.String("error", err.Error()),
		)
		return Hold("Advisor unreachable this tick. Holding."), nil
	}

	decision.Clamp()
	return decision, nil
}
