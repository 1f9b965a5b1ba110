package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clawlabs/arenabot/internal/domain"
)

// LeaderboardStore implements domain.LeaderboardStore using PostgreSQL.
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

// NewLeaderboardStore creates a LeaderboardStore backed by the given pool.
func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

var _ domain.LeaderboardStore = (*LeaderboardStore)(nil)

// Upsert inserts or replaces the entry for its wallet address.
func (s *LeaderboardStore) Upsert(ctx context.Context, entry domain.LeaderboardEntry) error {
	history, err := json.Marshal(entry.EquityHistory)
	if err != nil {
		return fmt.Errorf("postgres: marshal equity history: %w", err)
	}

	const query = `
		INSERT INTO leaderboard_entries (
			wallet_address, bot_name, balance, pnl_dollar, pnl_percent,
			days_live, total_volume, fees, win_rate, biggest_win,
			biggest_loss, trade_count, restart_count, style_summary,
			equity_history, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14,
			$15, NOW()
		)
		ON CONFLICT (wallet_address) DO UPDATE SET
			bot_name = EXCLUDED.bot_name,
			balance = EXCLUDED.balance,
			pnl_dollar = EXCLUDED.pnl_dollar,
			pnl_percent = EXCLUDED.pnl_percent,
			days_live = EXCLUDED.days_live,
			total_volume = EXCLUDED.total_volume,
			fees = EXCLUDED.fees,
			win_rate = EXCLUDED.win_rate,
			biggest_win = EXCLUDED.biggest_win,
			biggest_loss = EXCLUDED.biggest_loss,
			trade_count = EXCLUDED.trade_count,
			restart_count = EXCLUDED.restart_count,
			style_summary = EXCLUDED.style_summary,
			equity_history = EXCLUDED.equity_history,
			updated_at = NOW()`

	_, err = s.pool.Exec(ctx, query,
		entry.WalletAddress, entry.BotName, entry.Balance, entry.PnLDollar, entry.PnLPercent,
		entry.DaysLive, entry.TotalVolume, entry.Fees, entry.WinRate, entry.BiggestWin,
		entry.BiggestLoss, entry.TradeCount, entry.RestartCount, entry.StyleSummary,
		history,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert leaderboard entry %s: %w", entry.WalletAddress, err)
	}
	return nil
}

// List returns entries ordered by PnL percent descending, with ranks
// assigned.
func (s *LeaderboardStore) List(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	const query = `
		SELECT wallet_address, bot_name, balance, pnl_dollar, pnl_percent,
			days_live, total_volume, fees, win_rate, biggest_win,
			biggest_loss, trade_count, restart_count, style_summary,
			equity_history, updated_at
		FROM leaderboard_entries
		ORDER BY pnl_percent DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		var history []byte
		if err := rows.Scan(
			&e.WalletAddress, &e.BotName, &e.Balance, &e.PnLDollar, &e.PnLPercent,
			&e.DaysLive, &e.TotalVolume, &e.Fees, &e.WinRate, &e.BiggestWin,
			&e.BiggestLoss, &e.TradeCount, &e.RestartCount, &e.StyleSummary,
			&history, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan leaderboard entry: %w", err)
		}
		if len(history) > 0 {
			if err := json.Unmarshal(history, &e.EquityHistory); err != nil {
				return nil, fmt.Errorf("postgres: decode equity history for %s: %w", e.WalletAddress, err)
			}
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
