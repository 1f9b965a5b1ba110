package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/engine"
	"github.com/clawlabs/arenabot/internal/ledger"
)

// PortfolioHandler serves read-only portfolio state.
type PortfolioHandler struct {
	ledger *ledger.Ledger
	engine *engine.Engine
	logger *slog.Logger
}

// NewPortfolioHandler creates a PortfolioHandler.
func NewPortfolioHandler(l *ledger.Ledger, e *engine.Engine, logger *slog.Logger) *PortfolioHandler {
	return &PortfolioHandler{ledger: l, engine: e, logger: logger}
}

// portfolioResponse is the full dashboard snapshot.
type portfolioResponse struct {
	Balance      float64              `json:"balance"`
	Equity       float64              `json:"equity"`
	Positions    []domain.Position    `json:"positions"`
	Assets       []domain.MarketAsset `json:"assets"`
	ActiveBot    domain.BotType       `json:"activeBot"`
	StyleSummary string               `json:"styleSummary"`
	RestartCount int                  `json:"restartCount"`
	StartedAt    time.Time            `json:"startedAt"`
	LastTickAt   time.Time            `json:"lastTickAt,omitzero"`
	NextTickAt   time.Time            `json:"nextTickAt,omitzero"`
	Stats        ledger.Stats         `json:"stats"`
}

// GetPortfolio returns the current portfolio snapshot.
// GET /api/portfolio
func (h *PortfolioHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	resp := portfolioResponse{
		Balance:      h.ledger.Balance(),
		Equity:       h.ledger.Equity(),
		Positions:    h.ledger.OpenPositions(),
		Assets:       h.ledger.Assets(),
		ActiveBot:    h.ledger.ActiveBot(),
		StyleSummary: h.ledger.StyleSummary(),
		RestartCount: h.ledger.RestartCount(),
		StartedAt:    h.ledger.StartedAt(),
		Stats:        h.ledger.Stats(),
	}
	if h.engine != nil {
		resp.LastTickAt = h.engine.LastTickAt()
		resp.NextTickAt = h.engine.NextTickAt()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListTrades returns recent trade records, newest first.
// GET /api/trades?limit=N
func (h *PortfolioHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100, ledger.MaxTradeHistory)
	writeJSON(w, http.StatusOK, map[string]any{
		"trades": h.ledger.Trades(limit),
	})
}

// EquityHistory returns retained equity points, oldest first.
// GET /api/equity?limit=N
func (h *PortfolioHandler) EquityHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 0, ledger.MaxEquityHistory)
	writeJSON(w, http.StatusOK, map[string]any{
		"equity": h.ledger.EquityHistory(limit),
	})
}

// Thoughts returns the retained thought stream, oldest first.
// GET /api/thoughts?limit=N
func (h *PortfolioHandler) Thoughts(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 0, ledger.MaxThoughts)
	writeJSON(w, http.StatusOK, map[string]any{
		"thoughts": h.ledger.Thoughts(limit),
	})
}
