// Package service holds the application services sitting between the HTTP
// handlers and the ledger.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/ledger"
)

// equityHistoryPoints bounds how much history is shipped with each published
// entry; enough for a sparkline, not the full retention window.
const equityHistoryPoints = 96

// LeaderboardService publishes this bot's performance to the shared ranking
// store. Until Register is called the bot trades as an unranked guest.
type LeaderboardService struct {
	ledger *ledger.Ledger
	store  domain.LeaderboardStore
	logger *slog.Logger

	mu      sync.Mutex
	wallet  string
	botName string
}

// NewLeaderboardService creates the service.
func NewLeaderboardService(l *ledger.Ledger, store domain.LeaderboardStore, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		ledger: l,
		store:  store,
		logger: logger.With(slog.String("component", "leaderboard")),
	}
}

// Register claims a wallet identity for this bot and publishes immediately.
// The address must be a valid hex Ethereum address; ownership is not proven,
// matching the demo's honor-system model.
func (s *LeaderboardService) Register(ctx context.Context, wallet, botName string) error {
	if !common.IsHexAddress(wallet) {
		return fmt.Errorf("service: invalid wallet address %q", wallet)
	}
	if botName == "" {
		botName = "Unnamed Bot"
	}

	s.mu.Lock()
	s.wallet = common.HexToAddress(wallet).Hex()
	s.botName = botName
	s.mu.Unlock()

	s.ledger.AddThought(domain.ThoughtSys,
		fmt.Sprintf("Registered on the leaderboard as %q.", botName))
	return s.Publish(ctx)
}

// Registered reports whether an identity has been claimed.
func (s *LeaderboardService) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallet != ""
}

// Publish upserts the current performance snapshot. A no-op for guests.
func (s *LeaderboardService) Publish(ctx context.Context) error {
	s.mu.Lock()
	wallet, botName := s.wallet, s.botName
	s.mu.Unlock()
	if wallet == "" {
		return nil
	}

	stats := s.ledger.Stats()
	entry := domain.LeaderboardEntry{
		WalletAddress: wallet,
		BotName:       botName,
		Balance:       stats.Balance,
		PnLDollar:     stats.PnLDollar,
		PnLPercent:    stats.PnLPercent,
		DaysLive:      int(stats.DaysLive),
		TotalVolume:   stats.TotalVolume,
		Fees:          stats.TotalFees,
		WinRate:       stats.WinRate,
		BiggestWin:    stats.BiggestWin,
		BiggestLoss:   stats.BiggestLoss,
		TradeCount:    stats.TradeCount,
		RestartCount:  stats.RestartCount,
		StyleSummary:  s.ledger.StyleSummary(),
		EquityHistory: s.ledger.EquityHistory(equityHistoryPoints),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := s.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("service: publish leaderboard entry: %w", err)
	}
	return nil
}

// List returns the current ranking.
func (s *LeaderboardService) List(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	entries, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: list leaderboard: %w", err)
	}
	return entries, nil
}

// Run republishes on the given interval so the ranking tracks the portfolio
// without coupling to the tick loop. Publish failures are logged and
// retried next interval.
func (s *LeaderboardService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Publish(ctx); err != nil {
				s.logger.Warn("leaderboard publish failed", slog.String("error", err.Error()))
			}
		}
	}
}
