package handler

import (
	"log/slog"
	"net/http"

	"github.com/clawlabs/arenabot/internal/engine"
	"github.com/clawlabs/arenabot/internal/ledger"
)

// TickHandler exposes the manual tick trigger.
type TickHandler struct {
	engine *engine.Engine
	ledger *ledger.Ledger
	logger *slog.Logger
}

// NewTickHandler creates a TickHandler.
func NewTickHandler(e *engine.Engine, l *ledger.Ledger, logger *slog.Logger) *TickHandler {
	return &TickHandler{engine: e, ledger: l, logger: logger}
}

// Trigger runs one tick through the same path as the timer. The request
// blocks until the tick completes.
// POST /api/tick
func (h *TickHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Tick(r.Context()); err != nil {
		h.logger.Error("manual tick failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "tick failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"equity":     h.ledger.Equity(),
		"balance":    h.ledger.Balance(),
		"lastTickAt": h.engine.LastTickAt(),
	})
}
