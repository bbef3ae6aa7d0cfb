package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
)

// Filter keys understood by OrderRepository.FindAll
const (
	FilterKeyStatus        = "status"
	FilterKeyPaymentStatus = "payment_status"
	FilterKeyUserID        = "user_id"
	FilterKeyFrom          = "from"
	FilterKeyTo            = "to"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID loads the order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (*Order, error)
	// FindByIdempotencyKey returns the order a user created with the key, or ErrNotFound
	FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindExpiredPending returns pending_payment orders created before the cutoff
	FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]Order, error)
	CountBySlot(ctx context.Context, slotID uuid.UUID) (int64, error)
	// Save inserts or updates the order and replaces its items. Updates are
	// guarded by the aggregate version.
	Save(ctx context.Context, order *Order) error
}
