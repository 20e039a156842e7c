// Package cache is a Redis cache-aside layer for hot balance reads.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const balancePrefix = "balance:"

// BalanceCache caches per-user balances for a short TTL. All methods
// are safe on a nil receiver, which disables caching entirely.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New pings addr and returns a working cache, or nil when addr is
// empty or Redis is unreachable. Callers treat nil as "no cache".
func New(ctx context.Context, addr string, ttl time.Duration) *BalanceCache {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable, balance cache disabled", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}

	slog.Info("balance cache enabled", "addr", addr, "ttl", ttl)
	return &BalanceCache{client: client, ttl: ttl}
}

func (c *BalanceCache) GetBalance(ctx context.Context, userID string) (int64, bool) {
	if c == nil {
		return 0, false
	}

	raw, err := c.client.Get(ctx, balancePrefix+userID).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("balance cache read failed", "error", err)
		}
		return 0, false
	}

	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return balance, true
}

func (c *BalanceCache) SetBalance(ctx context.Context, userID string, balance int64) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, balancePrefix+userID, strconv.FormatInt(balance, 10), c.ttl).Err(); err != nil {
		slog.Warn("balance cache write failed", "error", err)
	}
}

// Invalidate drops cached balances after a committed mutation so the
// next read observes the store.
func (c *BalanceCache) Invalidate(ctx context.Context, userIDs ...string) {
	if c == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, balancePrefix+id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("balance cache invalidate failed", "error", err)
	}
}

func (c *BalanceCache) Close() {
	if c == nil {
		return
	}
	_ = c.client.Close()
}
