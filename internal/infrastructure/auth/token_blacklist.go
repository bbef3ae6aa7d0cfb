package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before they expire, on logout or after a
// password change.
type TokenBlacklist interface {
	// AddToBlacklist revokes a single token by JTI for ttl, normally the
	// token's remaining lifetime.
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// InvalidateUserTokens rejects every token of the user issued up to now
	InvalidateUserTokens(ctx context.Context, userID string, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const blacklistPrefix = "grocer:token:"

// RedisTokenBlacklist implements TokenBlacklist on the shared Redis client
type RedisTokenBlacklist struct {
	client *redis.Client
}

// NewRedisTokenBlacklist creates a token blacklist on an existing client
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{client: client}
}

func jtiKey(jti string) string     { return blacklistPrefix + "jti:" + jti }
func userKey(userID string) string { return blacklistPrefix + "user:" + userID }

// AddToBlacklist revokes a token
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether the token was revoked
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return n > 0, nil
}

// InvalidateUserTokens stores the invalidation time for the user
func (b *RedisTokenBlacklist) InvalidateUserTokens(ctx context.Context, userID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("invalidate user tokens: %w", err)
	}
	return nil
}

// IsUserTokenInvalidated reports whether a token issued at issuedAt
// predates the user's invalidation time
func (b *RedisTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user token invalidation: %w", err)
	}
	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse invalidation timestamp: %w", err)
	}
	return issuedAt.Unix() <= invalidatedAt, nil
}

// InMemoryTokenBlacklist implements TokenBlacklist for single-instance
// deployments and tests
type InMemoryTokenBlacklist struct {
	mu    sync.RWMutex
	jtis  map[string]time.Time
	users map[string]userInvalidation
	now   func() time.Time
}

type userInvalidation struct {
	at        time.Time
	expiresAt time.Time
}

// NewInMemoryTokenBlacklist creates an empty blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:  make(map[string]time.Time),
		users: make(map[string]userInvalidation),
		now:   time.Now,
	}
}

// AddToBlacklist revokes a token
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purge()
	b.jtis[jti] = b.now().Add(ttl)
	return nil
}

// IsBlacklisted reports whether the token was revoked
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	expiresAt, ok := b.jtis[jti]
	return ok && b.now().Before(expiresAt), nil
}

// InvalidateUserTokens records the invalidation time for the user
func (b *InMemoryTokenBlacklist) InvalidateUserTokens(_ context.Context, userID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	b.users[userID] = userInvalidation{at: now, expiresAt: now.Add(ttl)}
	return nil
}

// IsUserTokenInvalidated reports whether a token issued at issuedAt
// predates the user's invalidation time
func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	inv, ok := b.users[userID]
	if !ok || !b.now().Before(inv.expiresAt) {
		return false, nil
	}
	return issuedAt.Unix() <= inv.at.Unix(), nil
}

// purge drops expired entries; the caller holds the write lock
func (b *InMemoryTokenBlacklist) purge() {
	now := b.now()
	for jti, expiresAt := range b.jtis {
		if !now.Before(expiresAt) {
			delete(b.jtis, jti)
		}
	}
	for id, inv := range b.users {
		if !now.Before(inv.expiresAt) {
			delete(b.users, id)
		}
	}
}

// Len returns the number of revoked tokens still tracked
func (b *InMemoryTokenBlacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.jtis)
}

var (
	_ TokenBlacklist = (*RedisTokenBlacklist)(nil)
	_ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
)
