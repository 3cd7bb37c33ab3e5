package auth

import (
	"context"
	"fmt"
	"time"

	"userdir/internal/cache"
)

const sessionKeyPrefix = "session:"

// SessionStore tracks the single live session per account. Replacing the
// entry revokes whatever session was live before, which is how login
// invalidates prior tokens and account deletion invalidates all of them.
type SessionStore interface {
	Replace(ctx context.Context, accountID uint, sessionID string, ttl time.Duration) error
	Current(ctx context.Context, accountID uint) (string, error)
	Revoke(ctx context.Context, accountID uint) error
	RevokeIfCurrent(ctx context.Context, accountID uint, sessionID string) error
}

// RedisSessionStore keeps the live-session registry in Redis.
type RedisSessionStore struct {
	cache *cache.Client
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a session store backed by the cache client.
func NewRedisSessionStore(cache *cache.Client) *RedisSessionStore {
	return &RedisSessionStore{cache: cache}
}

func sessionKey(accountID uint) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, accountID)
}

// Replace makes sessionID the account's only live session.
func (s *RedisSessionStore) Replace(ctx context.Context, accountID uint, sessionID string, ttl time.Duration) error {
	return s.cache.Set(ctx, sessionKey(accountID), []byte(sessionID), ttl)
}

// Current returns the live session id, or empty when none exists.
func (s *RedisSessionStore) Current(ctx context.Context, accountID uint) (string, error) {
	data, err := s.cache.Get(ctx, sessionKey(accountID))
	if err != nil || data == nil {
		return "", err
	}
	return string(data), nil
}

// Revoke drops every live session for the account.
func (s *RedisSessionStore) Revoke(ctx context.Context, accountID uint) error {
	return s.cache.Delete(ctx, sessionKey(accountID))
}

// RevokeIfCurrent drops the live session only when it is still sessionID,
// so a logout with a stale token does not kill a newer login.
func (s *RedisSessionStore) RevokeIfCurrent(ctx context.Context, accountID uint, sessionID string) error {
	current, err := s.Current(ctx, accountID)
	if err != nil {
		return err
	}
	if current != sessionID {
		return nil
	}
	return s.cache.Delete(ctx, sessionKey(accountID))
}
