package promotion

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockVoucherRepository struct {
	mock.Mock
}

func (m *MockVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.Voucher, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) FindByCode(ctx context.Context, code string) (*promotion.Voucher, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*promotion.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) FindAll(ctx context.Context, filter shared.Filter) ([]promotion.Voucher, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]promotion.Voucher), args.Error(1)
}

func (m *MockVoucherRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVoucherRepository) Save(ctx context.Context, voucher *promotion.Voucher) error {
	return m.Called(ctx, voucher).Error(0)
}

func (m *MockVoucherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockVoucherRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockVoucherRepository) LockByCode(ctx context.Context, code string) (*promotion.Voucher, error) {
	args := m.Called(ctx, code)
	if v := args.Get(0); v != nil {
		return v.(*promotion.Voucher), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVoucherRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockVoucherRepository) DecrementUsage(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Save(ctx context.Context, usage *promotion.Usage) error {
	return m.Called(ctx, usage).Error(0)
}

func (m *MockUsageRepository) CountByVoucherAndUser(ctx context.Context, voucherID, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, voucherID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepository) FindByVoucher(ctx context.Context, voucherID uuid.UUID, filter shared.Filter) ([]promotion.Usage, int64, error) {
	args := m.Called(ctx, voucherID, filter)
	return args.Get(0).([]promotion.Usage), args.Get(1).(int64), args.Error(2)
}

func (m *MockUsageRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	return m.Called(ctx, orderID).Error(0)
}
