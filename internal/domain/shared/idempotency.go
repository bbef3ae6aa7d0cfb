package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already handled, such as outbox
// event IDs or payment provider notification IDs, for a limited time.
type IdempotencyStore interface {
	// MarkProcessed records the key. It returns false if the key was
	// already recorded and has not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Forget removes a key so a failed attempt can be retried at once
	Forget(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig controls duplicate suppression for event handlers
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
