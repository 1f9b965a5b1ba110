package strategy

import (
	"context"
	"log/slog"

	"github.com/clawlabs/arenabot/internal/domain"
)

// External is the OpenClaw strategy: it never acts on its own tick. Commands
// arrive out-of-band through the decision endpoint and are executed by the
// engine directly, so the periodic tick only marks positions to market.
type External struct {
	logger *slog.Logger
}

// NewExternal creates the externally-driven strategy.
func NewExternal(logger *slog.Logger) *External {
	return &External{
		logger: logger.With(slog.String("strategy", "openclaw")),
	}
}

func (e *External) Name() string { return string(domain.BotOpenClaw) }

// Decide always holds; the strategy is command-driven.
func (e *External) Decide(_ context.Context, _ PortfolioView) (domain.TradeDecision, error) {
	e.logger.Debug("awaiting external command")
	return Hold("Standing by for OpenClaw commands."), nil
}
