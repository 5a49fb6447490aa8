package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nextfilm/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Key layouts and lifetimes.
const (
	MovieRatingKeyPrefix = "movie:%s:rating"
	UserListKey          = "users:all"

	MovieRatingTTL = 5 * time.Minute
	UserListTTL    = time.Minute
)

// MovieRatingKey is the cache key for a movie's rating aggregate.
func MovieRatingKey(movieID string) string {
	return fmt.Sprintf(MovieRatingKeyPrefix, movieID)
}

// Cache stores JSON values in Redis. A nil client or nil *Cache turns every
// lookup into a miss and every write into a no-op.
type Cache struct {
	client *redis.Client
}

// New wraps client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON loads key into dest. found is false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, ttl).Err()
}

// Aside serves dest from the cache, or calls fetch to fill dest and stores the
// result. Cache failures are logged and fall through to fetch; family labels
// the hit/miss metric.
func (c *Cache) Aside(ctx context.Context, family, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheOperations.WithLabelValues(family, "error").Inc()
		observability.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	case found:
		observability.CacheOperations.WithLabelValues(family, "hit").Inc()
		return nil
	default:
		observability.CacheOperations.WithLabelValues(family, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		observability.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}

// Invalidate deletes keys, logging failures.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		observability.Logger.WarnContext(ctx, "cache invalidation failed", "keys", keys, "error", err)
	}
}
