package promotion

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
)

// VoucherRepository defines the interface for voucher persistence
type VoucherRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Voucher, error)
	// FindByCode looks the code up case-insensitively
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	// LockByCode is FindByCode holding a row lock until the surrounding
	// transaction ends, so per-user usage counts read after it are stable
	LockByCode(ctx context.Context, code string) (*Voucher, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Voucher, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, voucher *Voucher) error
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// IncrementUsage atomically records one redemption. It fails with
	// VOUCHER_EXHAUSTED without modifying anything when the cap is reached.
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	// DecrementUsage reverses a redemption, never below zero
	DecrementUsage(ctx context.Context, id uuid.UUID) error
}

// UsageRepository defines the interface for voucher redemption records
type UsageRepository interface {
	Save(ctx context.Context, usage *Usage) error
	CountByVoucherAndUser(ctx context.Context, voucherID, userID uuid.UUID) (int64, error)
	FindByVoucher(ctx context.Context, voucherID uuid.UUID, filter shared.Filter) ([]Usage, int64, error)
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) error
}
