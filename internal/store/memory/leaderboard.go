// Package memory provides in-process store implementations used when no
// database is configured. Contents do not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/clawlabs/arenabot/internal/domain"
)

// LeaderboardStore implements domain.LeaderboardStore in memory.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries map[string]domain.LeaderboardEntry
}

// NewLeaderboardStore creates an empty in-memory store.
func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{
		entries: make(map[string]domain.LeaderboardEntry),
	}
}

var _ domain.LeaderboardStore = (*LeaderboardStore)(nil)

// Upsert inserts or replaces the entry for its wallet address.
func (s *LeaderboardStore) Upsert(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.WalletAddress] = entry
	return nil
}

// List returns entries ordered by PnL percent descending, with ranks
// assigned.
func (s *LeaderboardStore) List(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PnLPercent > entries[j].PnLPercent
	})
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
