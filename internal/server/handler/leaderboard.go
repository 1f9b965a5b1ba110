package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/clawlabs/arenabot/internal/service"
)

// LeaderboardHandler serves the shared ranking.
type LeaderboardHandler struct {
	svc    *service.LeaderboardService
	logger *slog.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(svc *service.LeaderboardService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc, logger: logger}
}

// List returns ranked entries.
// GET /api/leaderboard?limit=N
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context(), parseLimit(r, 100, 500))
	if err != nil {
		h.logger.Error("leaderboard list failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type registerRequest struct {
	WalletAddress string `json:"walletAddress"`
	BotName       string `json:"botName"`
}

// Register claims a wallet identity and publishes the first snapshot.
// POST /api/leaderboard
func (h *LeaderboardHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.WalletAddress) == "" {
		writeError(w, http.StatusBadRequest, "walletAddress is required")
		return
	}

	if err := h.svc.Register(r.Context(), req.WalletAddress, strings.TrimSpace(req.BotName)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}
