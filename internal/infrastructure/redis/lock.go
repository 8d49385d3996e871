package redis

import (
	"context"
	"time"
)

// Acquire takes a best-effort distributed lock via SET NX. The TTL bounds the
// critical section if the holder dies; correctness does not depend on the
// lock alone - commits are still version-checked.
func (r *RedisClient) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, key, "1", ttl).Result()
}

// Release drops the lock. Safe to call after expiry.
func (r *RedisClient) Release(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
