package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors
// on plain reads and writes. Counter operations report errors so callers can
// decide what a broken counter means for them.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// fail safe: behave like cache miss
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		// fail safe: ignore redis errors
		return nil
	}
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return nil
	}
	return nil
}

// Incr increments a counter and sets its TTL when the counter is new.
// Unlike Get/Set, redis errors are returned: a counter that silently reads
// zero would defeat whatever the caller is counting.
func (c *Client) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c == nil || c.client == nil {
		return 0, redis.ErrClosed
	}
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// SAdd adds a member to a set and refreshes the set's TTL, ignoring redis errors.
func (c *Client) SAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.SAdd(ctx, key, member).Err(); err != nil {
		return nil
	}
	_ = c.client.Expire(ctx, key, ttl).Err()
	return nil
}

// SMembers returns the members of a set, or nil if missing or redis unavailable.
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, nil
	}
	return members, nil
}
