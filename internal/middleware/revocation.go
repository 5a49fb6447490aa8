package middleware

import (
	"context"
	"time"

	"nextfilm/internal/observability"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "blacklist:"

// RevocationList stores revoked token ids in Redis until the token would have expired anyway.
// A nil client turns every call into a no-op.
type RevocationList struct {
	rdb *redis.Client
}

// NewRevocationList returns a RevocationList backed by rdb.
func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb}
}

// Revoke blacklists tokenID for ttl.
func (r *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r == nil || r.rdb == nil || tokenID == "" || ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether tokenID was revoked. Redis errors fail open.
func (r *RevocationList) IsRevoked(ctx context.Context, tokenID string) bool {
	if r == nil || r.rdb == nil || tokenID == "" {
		return false
	}
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("revocation_check").Inc()
		return false
	}
	return n > 0
}
