package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/cart"
	"github.com/grocer/backend/internal/domain/shared"
)

const memoryCleanupInterval = 5 * time.Minute

// expiringMap is a mutex-guarded map whose values carry a deadline.
// A background goroutine sweeps expired keys until Close is called.
type expiringMap[V any] struct {
	mu        sync.Mutex
	entries   map[string]expiringValue[V]
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type expiringValue[V any] struct {
	value     V
	expiresAt time.Time
}

func newExpiringMap[V any]() *expiringMap[V] {
	m := &expiringMap[V]{
		entries: make(map[string]expiringValue[V]),
		stop:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.cleanupLoop()
	return m
}

func (m *expiringMap[V]) get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *expiringMap[V]) set(key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = expiringValue[V]{value: value, expiresAt: time.Now().Add(ttl)}
}

// setIfAbsent stores the value unless a live entry exists
func (m *expiringMap[V]) setIfAbsent(key string, value V, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok && time.Now().Before(e.expiresAt) {
		return false
	}
	m.entries[key] = expiringValue[V]{value: value, expiresAt: time.Now().Add(ttl)}
	return true
}

func (m *expiringMap[V]) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *expiringMap[V]) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *expiringMap[V]) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

func (m *expiringMap[V]) cleanupLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(memoryCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *expiringMap[V]) close() {
	m.closeOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

// InMemoryIdempotencyStore implements shared.IdempotencyStore in process
// memory. Suitable for a single instance and for tests.
type InMemoryIdempotencyStore struct {
	keys *expiringMap[struct{}]
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{keys: newExpiringMap[struct{}]()}
}

// MarkProcessed records key and reports whether it was new
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return s.keys.setIfAbsent(key, struct{}{}, ttl), nil
}

// IsProcessed reports whether key is recorded and unexpired
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	_, ok := s.keys.get(key)
	return ok, nil
}

// Forget removes key
func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.keys.delete(key)
	return nil
}

// Size returns the number of stored keys, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	return s.keys.size()
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.keys.close()
	return nil
}

// InMemoryCartStore implements cart.Store in process memory
type InMemoryCartStore struct {
	// writes serialises Update, Save and Delete
	writes sync.Mutex
	carts  *expiringMap[cart.Cart]
	ttl    time.Duration
}

// NewInMemoryCartStore creates a cart store whose carts expire after ttl of inactivity
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	return &InMemoryCartStore{carts: newExpiringMap[cart.Cart](), ttl: ttl}
}

// Get returns a copy of the stored cart or a new empty one
func (s *InMemoryCartStore) Get(_ context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, ok := s.carts.get(userID.String())
	if !ok {
		return cart.New(userID), nil
	}
	c.Items = copyItems(c.Items)
	return &c, nil
}

// Update applies change under the store's write lock
func (s *InMemoryCartStore) Update(ctx context.Context, userID uuid.UUID, change func(*cart.Cart) error) (*cart.Cart, error) {
	s.writes.Lock()
	defer s.writes.Unlock()

	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := change(c); err != nil {
		return nil, err
	}
	s.put(c)
	return c, nil
}

// Save stores a copy of the cart and refreshes its expiry
func (s *InMemoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	s.put(c)
	return nil
}

func (s *InMemoryCartStore) put(c *cart.Cart) {
	stored := *c
	stored.Items = copyItems(c.Items)
	s.carts.set(c.UserID.String(), stored, s.ttl)
}

// Delete removes the user's cart
func (s *InMemoryCartStore) Delete(_ context.Context, userID uuid.UUID) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	s.carts.delete(userID.String())
	return nil
}

func copyItems(items []cart.Item) []cart.Item {
	out := make([]cart.Item, len(items))
	copy(out, items)
	return out
}

// Close stops the sweeper
func (s *InMemoryCartStore) Close() error {
	s.carts.close()
	return nil
}

var (
	_ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
	_ cart.Store              = (*InMemoryCartStore)(nil)
)
