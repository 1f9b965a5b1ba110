package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/engine"
	"github.com/clawlabs/arenabot/internal/ledger"
)

// DecisionHandler accepts out-of-band trade commands for the OpenClaw bot.
type DecisionHandler struct {
	engine *engine.Engine
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewDecisionHandler creates a DecisionHandler.
func NewDecisionHandler(e *engine.Engine, l *ledger.Ledger, logger *slog.Logger) *DecisionHandler {
	return &DecisionHandler{engine: e, ledger: l, logger: logger}
}

type decisionRequest struct {
	Action    string  `json:"action"`
	Asset     string  `json:"asset"`
	Reasoning string  `json:"reasoning"`
	W         float64 `json:"w"`
	R         float64 `json:"r"`
}

// Submit validates and executes an external decision. Only honored while the
// OpenClaw bot is active; W and R are clamped before execution.
// POST /api/decision
func (h *DecisionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if h.ledger.ActiveBot() != domain.BotOpenClaw {
		writeError(w, http.StatusConflict, "openclaw bot is not active")
		return
	}

	action := domain.DecisionAction(strings.ToUpper(strings.TrimSpace(req.Action)))
	switch action {
	case domain.DecisionBuy, domain.DecisionSell:
		if strings.TrimSpace(req.Asset) == "" {
			writeError(w, http.StatusBadRequest, "asset is required for "+string(action))
			return
		}
	case domain.DecisionHold:
	default:
		writeError(w, http.StatusBadRequest, "action must be BUY, SELL, or HOLD")
		return
	}

	h.engine.ExecuteDecision(r.Context(), domain.TradeDecision{
		Action:    action,
		Asset:     strings.ToUpper(strings.TrimSpace(req.Asset)),
		Reasoning: req.Reasoning,
		W:         req.W,
		R:         req.R,
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"balance": h.ledger.Balance(),
		"equity":  h.ledger.Equity(),
	})
}
