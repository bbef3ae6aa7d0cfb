package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrderRepository_SaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	milk := seedProduct(t, products, "MILK-1L", "Whole Milk", "1.25", 10)
	eggs := seedProduct(t, products, "EGG-6", "Eggs", "2.00", 10)

	o := newPlacedOrder(t, uuid.New(), milk, eggs)
	o.IdempotencyKey = "checkout-123"
	require.NoError(t, repo.Save(ctx, o))

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, found.OrderNumber)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "Eggs", found.Items[0].ProductName)
	assert.True(t, found.Subtotal.Equal(dec("6.50")))
	assert.True(t, found.Total.Equal(dec("10.00")))
	assert.Equal(t, "SW1A1AA", found.Address.Postcode)
	assert.Equal(t, ordering.OrderStatusPendingPayment, found.Status)

	byNumber, err := repo.FindByNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, byNumber.ID)

	byKey, err := repo.FindByIdempotencyKey(ctx, o.UserID, "checkout-123")
	require.NoError(t, err)
	assert.Equal(t, o.ID, byKey.ID)

	_, err = repo.FindByIdempotencyKey(ctx, uuid.New(), "checkout-123")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByIdempotencyKey(ctx, o.UserID, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindByPaymentReference(ctx, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_UpdateLifecycle(t *testing.T) {
	db := setupTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	bread := seedProduct(t, products, "BREAD-W", "White Bread", "1.10", 10)
	o := newPlacedOrder(t, uuid.New(), bread)
	require.NoError(t, repo.Save(ctx, o))

	require.NoError(t, o.AttachPayment("pi_123"))
	require.NoError(t, o.MarkPaid(""))
	require.NoError(t, repo.Save(ctx, o))

	paid, err := repo.FindByPaymentReference(ctx, "pi_123")
	require.NoError(t, err)
	assert.Equal(t, ordering.OrderStatusPaid, paid.Status)
	assert.Equal(t, ordering.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)
	require.Len(t, paid.Items, 1, "items are replaced, not duplicated")

	stale, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NoError(t, paid.StartPreparing())
	require.NoError(t, repo.Save(ctx, paid))

	require.NoError(t, stale.StartPreparing())
	assert.ErrorIs(t, repo.Save(ctx, stale), shared.ErrConcurrencyConflict)
}

func TestGormOrderRepository_FindAllFilters(t *testing.T) {
	db := setupTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	p := seedProduct(t, products, "RICE-1KG", "Basmati Rice", "2.40", 50)
	alice, bob := uuid.New(), uuid.New()

	a1 := newPlacedOrder(t, alice, p)
	require.NoError(t, repo.Save(ctx, a1))
	a2 := newPlacedOrder(t, alice, p)
	require.NoError(t, a2.MarkPaid("pi_a2"))
	require.NoError(t, repo.Save(ctx, a2))
	b1 := newPlacedOrder(t, bob, p)
	require.NoError(t, repo.Save(ctx, b1))

	filter := shared.DefaultFilter()
	filter.Filters[ordering.FilterKeyUserID] = alice
	rows, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, o := range rows {
		assert.Len(t, o.Items, 1)
	}

	filter = shared.DefaultFilter()
	filter.Filters[ordering.FilterKeyStatus] = string(ordering.OrderStatusPaid)
	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	filter = shared.DefaultFilter()
	filter.Search = b1.OrderNumber
	rows, err = repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b1.ID, rows[0].ID)

	filter = shared.DefaultFilter()
	filter.Search = "sw1a"
	count, err = repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = repo.CountBySlot(ctx, b1.SlotID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormOrderRepository_FindExpiredPending(t *testing.T) {
	db := setupTestDB(t)
	products := NewGormProductRepository(db)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	p := seedProduct(t, products, "PASTA-500", "Penne 500g", "0.95", 50)

	stale := newPlacedOrder(t, uuid.New(), p)
	stale.CreatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, repo.Save(ctx, stale))

	fresh := newPlacedOrder(t, uuid.New(), p)
	require.NoError(t, repo.Save(ctx, fresh))

	paid := newPlacedOrder(t, uuid.New(), p)
	paid.CreatedAt = time.Now().Add(-3 * time.Hour)
	require.NoError(t, paid.MarkPaid("pi_paid"))
	require.NoError(t, repo.Save(ctx, paid))

	expired, err := repo.FindExpiredPending(ctx, time.Now().Add(-30*time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.Len(t, expired[0].Items, 1)
}
