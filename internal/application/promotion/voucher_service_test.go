package promotion

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newVoucherFixture() (*VoucherService, *MockVoucherRepository, *MockUsageRepository) {
	vouchers := new(MockVoucherRepository)
	usages := new(MockUsageRepository)
	return NewVoucherService(vouchers, usages, zap.NewNop()), vouchers, usages
}

func mustVoucher(t *testing.T, code string, vtype promotion.VoucherType, value string) *promotion.Voucher {
	t.Helper()
	v, err := promotion.NewVoucher(code, vtype, dec(value))
	require.NoError(t, err)
	return v
}

func TestVoucherService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes code and applies limits", func(t *testing.T) {
		svc, vouchers, _ := newVoucherFixture()
		vouchers.On("ExistsByCode", ctx, "SPRING10").Return(false, nil)
		vouchers.On("Save", ctx, mock.AnythingOfType("*promotion.Voucher")).Return(nil)

		maxUses := 50
		maxDiscount := dec("15")
		resp, err := svc.Create(ctx, VoucherRequest{
			Code:         " spring10 ",
			Type:         "percentage",
			Value:        dec("10"),
			MinimumOrder: dec("20"),
			MaxDiscount:  &maxDiscount,
			MaxUses:      &maxUses,
			PerUserLimit: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, "SPRING10", resp.Code)
		assert.Equal(t, 50, resp.RemainingUses)
		assert.True(t, resp.Active)
	})

	t.Run("duplicate code", func(t *testing.T) {
		svc, vouchers, _ := newVoucherFixture()
		vouchers.On("ExistsByCode", ctx, "SPRING10").Return(true, nil)

		_, err := svc.Create(ctx, VoucherRequest{Code: "spring10", Type: "fixed", Value: dec("5")})
		assert.ErrorIs(t, err, ErrCodeExists)
	})

	t.Run("invalid validity window", func(t *testing.T) {
		svc, vouchers, _ := newVoucherFixture()
		vouchers.On("ExistsByCode", ctx, "SPRING10").Return(false, nil)
		from := time.Now()
		to := from.Add(-time.Hour)

		_, err := svc.Create(ctx, VoucherRequest{Code: "spring10", Type: "fixed", Value: dec("5"), ValidFrom: &from, ValidTo: &to})
		assert.ErrorIs(t, err, shared.NewDomainError("INVALID_VALIDITY", ""))
		vouchers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestVoucherService_UpdateRename(t *testing.T) {
	ctx := context.Background()

	t.Run("unused voucher can be renamed", func(t *testing.T) {
		svc, vouchers, _ := newVoucherFixture()
		v := mustVoucher(t, "OLD", promotion.VoucherTypeFixed, "5")
		vouchers.On("FindByID", ctx, v.ID).Return(v, nil)
		vouchers.On("ExistsByCode", ctx, "NEW").Return(false, nil)
		vouchers.On("Save", ctx, v).Return(nil)

		resp, err := svc.Update(ctx, v.ID, VoucherRequest{Code: "new", Type: "fixed", Value: dec("7.5")})
		require.NoError(t, err)
		assert.Equal(t, "NEW", resp.Code)
		assert.True(t, dec("7.5").Equal(resp.Value))
	})

	t.Run("redeemed voucher keeps its code", func(t *testing.T) {
		svc, vouchers, _ := newVoucherFixture()
		v := mustVoucher(t, "OLD", promotion.VoucherTypeFixed, "5")
		v.UsedCount = 3
		vouchers.On("FindByID", ctx, v.ID).Return(v, nil)
		vouchers.On("ExistsByCode", ctx, "NEW").Return(false, nil)

		_, err := svc.Update(ctx, v.ID, VoucherRequest{Code: "new", Type: "fixed", Value: dec("5")})
		assert.ErrorIs(t, err, shared.NewDomainError("VOUCHER_IN_USE", ""))
	})
}

func TestVoucherService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, vouchers, _ := newVoucherFixture()
	used := mustVoucher(t, "USED", promotion.VoucherTypeFixed, "5")
	used.UsedCount = 1
	vouchers.On("FindByID", ctx, used.ID).Return(used, nil)

	assert.ErrorIs(t, svc.Delete(ctx, used.ID), ErrVoucherInUse)
	vouchers.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestVoucherService_Deactivate(t *testing.T) {
	ctx := context.Background()
	svc, vouchers, _ := newVoucherFixture()
	v := mustVoucher(t, "SPRING", promotion.VoucherTypeFixed, "5")
	vouchers.On("FindByID", ctx, v.ID).Return(v, nil)
	vouchers.On("Save", ctx, v).Return(nil)

	resp, err := svc.Deactivate(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, resp.Active)

	_, err = svc.Deactivate(ctx, v.ID)
	assert.ErrorIs(t, err, shared.NewDomainError("ALREADY_INACTIVE", ""))
}

func TestVoucherService_Resolve(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("unknown code", func(t *testing.T) {
		svc, vouchers, _ := newVoucherFixture()
		vouchers.On("FindByCode", ctx, "NOPE").Return(nil, shared.ErrNotFound)

		_, _, err := svc.Resolve(ctx, "nope", dec("10"), userID)
		assert.ErrorIs(t, err, promotion.ErrVoucherNotFound)
	})

	t.Run("fixed discount clamps to subtotal", func(t *testing.T) {
		svc, vouchers, _ := newVoucherFixture()
		v := mustVoucher(t, "TENOFF", promotion.VoucherTypeFixed, "10")
		vouchers.On("FindByCode", ctx, "TENOFF").Return(v, nil)

		_, discount, err := svc.Resolve(ctx, "tenoff", dec("6.50"), userID)
		require.NoError(t, err)
		assert.True(t, dec("6.50").Equal(discount))
	})

	t.Run("per-customer limit", func(t *testing.T) {
		svc, vouchers, usages := newVoucherFixture()
		v := mustVoucher(t, "ONCE", promotion.VoucherTypePercentage, "20")
		require.NoError(t, v.SetLimits(decimal.Zero, nil, nil, 1))
		vouchers.On("FindByCode", ctx, "ONCE").Return(v, nil)
		usages.On("CountByVoucherAndUser", ctx, v.ID, userID).Return(int64(1), nil)

		_, _, err := svc.Resolve(ctx, "once", dec("40"), userID)
		assert.ErrorIs(t, err, promotion.ErrVoucherUserLimit)
	})

	t.Run("anonymous check skips usage lookup", func(t *testing.T) {
		svc, vouchers, usages := newVoucherFixture()
		v := mustVoucher(t, "ONCE", promotion.VoucherTypePercentage, "20")
		require.NoError(t, v.SetLimits(decimal.Zero, nil, nil, 1))
		vouchers.On("FindByCode", ctx, "ONCE").Return(v, nil)

		resp, err := svc.Check(ctx, ValidateVoucherRequest{Code: "once", Subtotal: dec("40")}, uuid.Nil)
		require.NoError(t, err)
		assert.True(t, dec("8").Equal(resp.Discount))
		usages.AssertNotCalled(t, "CountByVoucherAndUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVoucherService_Usages(t *testing.T) {
	ctx := context.Background()
	svc, vouchers, usages := newVoucherFixture()
	v := mustVoucher(t, "SPRING", promotion.VoucherTypeFixed, "5")
	vouchers.On("FindByID", ctx, v.ID).Return(v, nil)
	usage := promotion.NewUsage(v.ID, uuid.New(), uuid.New(), dec("5"))
	usages.On("FindByVoucher", ctx, v.ID, mock.AnythingOfType("shared.Filter")).
		Return([]promotion.Usage{*usage}, int64(1), nil)

	page, err := svc.Usages(ctx, v.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, usage.OrderID, page.Items[0].OrderID)
	assert.Equal(t, int64(1), page.Total)
}
