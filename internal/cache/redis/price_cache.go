package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clawlabs/arenabot/internal/domain"
)

// quoteTTL bounds how long a stale quote can substitute for live data.
const quoteTTL = 24 * time.Hour

// PriceCache implements domain.PriceCache on Redis hashes, one key per
// symbol.
type PriceCache struct {
	rdb *redis.Client
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client) *PriceCache {
	return &PriceCache{rdb: c.Underlying()}
}

var _ domain.PriceCache = (*PriceCache)(nil)

func quoteKey(symbol string) string {
	return "arena:quote:" + symbol
}

// SetQuote stores the last-known quote for a symbol.
func (pc *PriceCache) SetQuote(ctx context.Context, symbol string, price, ma30, change24h float64, ts time.Time) error {
	key := quoteKey(symbol)
	pipe := pc.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"price":     price,
		"ma30":      ma30,
		"change24h": change24h,
		"ts":        ts.UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, quoteTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", symbol, err)
	}
	return nil
}

// GetQuote returns the cached quote. A missing key maps to
// domain.ErrNotFound.
func (pc *PriceCache) GetQuote(ctx context.Context, symbol string) (price, ma30, change24h float64, ts time.Time, err error) {
	values, err := pc.rdb.HGetAll(ctx, quoteKey(symbol)).Result()
	if err != nil {
		return 0, 0, 0, time.Time{}, fmt.Errorf("redis: get quote %s: %w", symbol, err)
	}
	if len(values) == 0 {
		return 0, 0, 0, time.Time{}, domain.ErrNotFound
	}

	parse := func(field string) (float64, error) {
		var f float64
		if _, scanErr := fmt.Sscanf(values[field], "%g", &f); scanErr != nil {
			return 0, fmt.Errorf("redis: parse quote field %s=%q: %w", field, values[field], scanErr)
		}
		return f, nil
	}
	if price, err = parse("price"); err != nil {
		return 0, 0, 0, time.Time{}, err
	}
	if ma30, err = parse("ma30"); err != nil {
		return 0, 0, 0, time.Time{}, err
	}
	if change24h, err = parse("change24h"); err != nil {
		return 0, 0, 0, time.Time{}, err
	}
	if raw := values["ts"]; raw != "" {
		if parsed, parseErr := time.Parse(time.RFC3339Nano, raw); parseErr == nil {
			ts = parsed
		}
	}
	return price, ma30, change24h, ts, nil
}
