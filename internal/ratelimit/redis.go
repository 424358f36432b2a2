package ratelimit

import (
	"context"
	"time"

	"memberhub/internal/cache"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore is a CounterStore backed by a shared Redis counter, for
// deployments with more than one instance.
type RedisStore struct {
	cache *cache.Client
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(cache *cache.Client) *RedisStore {
	return &RedisStore{cache: cache}
}

// Incr increments the shared counter for key. The window TTL is set when the
// counter is created and left alone afterwards, so the window is fixed from
// the first request.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return s.cache.Incr(ctx, redisKeyPrefix+key, window)
}
