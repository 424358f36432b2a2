// Package ratelimit bounds password-reset requests per identifier within a
// fixed time window. The counter lives behind CounterStore so single-instance
// deployments can use process memory while multi-instance deployments share a
// Redis counter, without touching the limiter itself.
package ratelimit

import (
	"context"
	"time"
)

const (
	// Window is the length of one rate-limit window.
	Window = time.Hour
	// Capacity is the number of requests allowed per identifier per window.
	Capacity = 3
)

// CounterStore increments a bounded counter with a TTL per key. The returned
// count includes the current call.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter gates requests per identifier.
type Limiter struct {
	store    CounterStore
	capacity int64
	window   time.Duration
}

// New builds a Limiter with the default window and capacity.
func New(store CounterStore) *Limiter {
	return &Limiter{store: store, capacity: Capacity, window: Window}
}

// Allow consumes one request slot for the identifier. It returns false once
// the identifier has exhausted its capacity for the current window. Counter
// store failures propagate so the caller can fail closed.
func (l *Limiter) Allow(ctx context.Context, identifier string) (bool, error) {
	count, err := l.store.Incr(ctx, identifier, l.window)
	if err != nil {
		return false, err
	}
	return count <= l.capacity, nil
}
