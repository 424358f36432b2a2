package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"memberhub/internal/cache"
)

const (
	sessionKeyPrefix      = "session:"
	userSessionsKeyPrefix = "user_sessions:"
)

// SessionStoreInterface defines server-side session record operations.
type SessionStoreInterface interface {
	StoreSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	SessionExists(ctx context.Context, tokenID string) (bool, error)
	// InvalidateAllSessions revokes every session record for the user,
	// forcing re-authentication everywhere. Used after a password reset.
	InvalidateAllSessions(ctx context.Context, userID uint) error
}

// SessionStore keeps session records in Redis, indexed per user so a password
// reset can revoke everything the user holds.
type SessionStore struct {
	cache *cache.Client
}

// Ensure SessionStore implements SessionStoreInterface
var _ SessionStoreInterface = (*SessionStore)(nil)

// NewSessionStore creates a new session store.
func NewSessionStore(cache *cache.Client) *SessionStore {
	return &SessionStore{cache: cache}
}

func sessionKey(tokenID string) string {
	return sessionKeyPrefix + tokenID
}

func userSessionsKey(userID uint) string {
	return fmt.Sprintf("%s%d", userSessionsKeyPrefix, userID)
}

// StoreSession records a session and adds it to the owner's session index.
func (s *SessionStore) StoreSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	payload, err := json.Marshal(map[string]interface{}{"user_id": userID})
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKey(tokenID), payload, ttl); err != nil {
		return err
	}
	return s.cache.SAdd(ctx, userSessionsKey(userID), tokenID, ttl)
}

// SessionExists reports whether a session record is still live. A missing
// record means the session was revoked or expired, so the token fails closed.
func (s *SessionStore) SessionExists(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, sessionKey(tokenID))
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}

// InvalidateAllSessions deletes the user's session records and the index.
func (s *SessionStore) InvalidateAllSessions(ctx context.Context, userID uint) error {
	indexKey := userSessionsKey(userID)
	tokenIDs, err := s.cache.SMembers(ctx, indexKey)
	if err != nil {
		return err
	}
	for _, tokenID := range tokenIDs {
		if err := s.cache.Delete(ctx, sessionKey(tokenID)); err != nil {
			return err
		}
	}
	return s.cache.Delete(ctx, indexKey)
}
