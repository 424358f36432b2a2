package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count   int64
	resetAt time.Time
}

// MemoryStore is a mutex-guarded in-process CounterStore. Counters are not
// shared across instances; with more than one replica this only limits abuse
// per process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Incr increments the counter for key, opening a fresh window when the
// previous one has elapsed.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.After(e.resetAt) {
		e = entry{count: 0, resetAt: now.Add(window)}
	}
	e.count++
	s.entries[key] = e
	return e.count, nil
}
