package cache

import (
	"context"
	"fmt"

	"github.com/grocer/backend/internal/domain/cart"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the key-value stores used by the application
type Stores struct {
	// Client is nil when running on the in-memory fallback
	Client      *redis.Client
	Idempotency shared.IdempotencyStore
	Carts       cart.Store

	closers []func() error
}

// Option configures NewStores
type Option func(*options)

type options struct {
	logger        *zap.Logger
	allowFallback bool
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-memory stores instead of failing. Default true.
func WithInMemoryFallback(allow bool) Option {
	return func(o *options) { o.allowFallback = allow }
}

// NewStores connects to Redis when enabled and builds the stores on it,
// otherwise it builds in-memory stores.
func NewStores(ctx context.Context, cfg config.RedisConfig, opts ...Option) (*Stores, error) {
	o := options{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Enabled {
		client, err := NewRedisClient(ctx, cfg)
		if err == nil {
			o.logger.Info("using Redis stores", zap.String("addr", cfg.Addr()))
			return &Stores{
				Client:      client,
				Idempotency: NewRedisIdempotencyStore(client),
				Carts:       NewRedisCartStore(client, cfg.CartTTL),
				closers:     []func() error{client.Close},
			}, nil
		}
		if !o.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		o.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Carts and idempotency keys will not be shared between instances.",
			zap.Error(err),
		)
	}

	return NewInMemoryStores(cfg), nil
}

// NewInMemoryStores builds process-local stores
func NewInMemoryStores(cfg config.RedisConfig) *Stores {
	idem := NewInMemoryIdempotencyStore()
	carts := NewInMemoryCartStore(cfg.CartTTL)
	return &Stores{
		Idempotency: idem,
		Carts:       carts,
		closers:     []func() error{idem.Close, carts.Close},
	}
}

// Close releases the stores and the Redis client
func (s *Stores) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
