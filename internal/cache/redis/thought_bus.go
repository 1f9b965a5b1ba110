package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/clawlabs/arenabot/internal/domain"
)

// thoughtStream is the Redis stream key the UI tails.
const thoughtStream = "arena:thoughts"

// streamMaxLen is the approximate maximum stream length, enforced via
// XADD MAXLEN ~. Matches the in-memory thought retention.
const streamMaxLen int64 = 200

// ThoughtBus implements domain.ThoughtBus on a capped Redis stream, giving
// external consumers an ordered, replayable view of the thought stream.
type ThoughtBus struct {
	rdb *redis.Client
}

// NewThoughtBus creates a ThoughtBus backed by the given Client.
func NewThoughtBus(c *Client) *ThoughtBus {
	return &ThoughtBus{rdb: c.Underlying()}
}

var _ domain.ThoughtBus = (*ThoughtBus)(nil)

// Publish appends one entry to the stream.
func (tb *ThoughtBus) Publish(ctx context.Context, entry domain.ThoughtEntry) error {
	err := tb.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: thoughtStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"id":      entry.ID,
			"ts":      entry.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"level":   string(entry.Level),
			"message": entry.Message,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: publish thought: %w", err)
	}
	return nil
}
