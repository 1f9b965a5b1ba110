package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/ledger"
	"github.com/clawlabs/arenabot/internal/strategy"
)

// StyleTrainer condenses instructions and trade history into a style label.
// The OpenRouter client implements it; train mode is unavailable without one.
type StyleTrainer interface {
	SummarizeStyle(ctx context.Context, instructions []string, trades []domain.TradeRecord) (string, error)
}

// BotHandler manages strategy selection, custom instructions, and train
// mode.
type BotHandler struct {
	ledger   *ledger.Ledger
	registry *strategy.Registry
	trainer  StyleTrainer
	logger   *slog.Logger
}

// NewBotHandler creates a BotHandler. trainer may be nil.
func NewBotHandler(l *ledger.Ledger, reg *strategy.Registry, trainer StyleTrainer, logger *slog.Logger) *BotHandler {
	return &BotHandler{ledger: l, registry: reg, trainer: trainer, logger: logger}
}

type botResponse struct {
	ActiveBot    domain.BotType `json:"activeBot"`
	Available    []string       `json:"available"`
	Instructions []string       `json:"instructions"`
	StyleSummary string         `json:"styleSummary"`
}

// GetBot returns the current bot configuration.
// GET /api/bot
func (h *BotHandler) GetBot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, botResponse{
		ActiveBot:    h.ledger.ActiveBot(),
		Available:    h.registry.List(),
		Instructions: h.ledger.Instructions(),
		StyleSummary: h.ledger.StyleSummary(),
	})
}

type updateBotRequest struct {
	Bot          string   `json:"bot"`
	Instructions []string `json:"instructions"`
}

// UpdateBot switches the active strategy and/or replaces the custom
// instructions. Open positions carry over unchanged.
// PUT /api/bot
func (h *BotHandler) UpdateBot(w http.ResponseWriter, r *http.Request) {
	var req updateBotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if req.Bot != "" {
		name := strings.ToLower(strings.TrimSpace(req.Bot))
		if _, err := h.registry.Get(name); err != nil {
			writeError(w, http.StatusBadRequest, "unknown bot "+req.Bot)
			return
		}
		h.ledger.SetActiveBot(domain.BotType(name))
	}
	if req.Instructions != nil {
		h.ledger.SetInstructions(req.Instructions)
	}

	h.GetBot(w, r)
}

// Train regenerates the style summary from the current instructions and
// recent trades.
// POST /api/bot/train
func (h *BotHandler) Train(w http.ResponseWriter, r *http.Request) {
	if h.trainer == nil {
		writeError(w, http.StatusServiceUnavailable, "no advisor configured")
		return
	}

	summary, err := h.trainer.SummarizeStyle(r.Context(), h.ledger.Instructions(), h.ledger.Trades(20))
	if err != nil {
		h.logger.Warn("train failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "style training failed")
		return
	}

	h.ledger.SetStyleSummary(summary)
	h.ledger.AddThought(domain.ThoughtSys, "Style recalibrated: "+summary)
	writeJSON(w, http.StatusOK, map[string]string{"styleSummary": summary})
}
