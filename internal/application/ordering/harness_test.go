package ordering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/identity"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/infrastructure/cache"
	"github.com/grocer/backend/internal/infrastructure/event"
	"github.com/grocer/backend/internal/infrastructure/payment"
	"github.com/grocer/backend/internal/infrastructure/persistence"
	"github.com/grocer/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const webhookSecret = "whsec_test"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// harness wires the order service to SQLite-backed repositories, the
// in-memory cache stores and the stub payment gateway
type harness struct {
	t        *testing.T
	svc      *Service
	db       *gorm.DB
	products *persistence.GormProductRepository
	zones    *persistence.GormZoneRepository
	slots    *persistence.GormSlotRepository
	vouchers *persistence.GormVoucherRepository
	usages   *persistence.GormVoucherUsageRepository
	orders   *persistence.GormOrderRepository
	users    *persistence.GormUserRepository
	outbox   *persistence.GormOutboxRepository
	carts    *cache.InMemoryCartStore
	gateway  *payment.StubGateway
	metrics  *countingMetrics

	customer *identity.User
	zone     *delivery.Zone
	slot     *delivery.Slot
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	h := &harness{
		t:        t,
		db:       db,
		products: persistence.NewGormProductRepository(db),
		zones:    persistence.NewGormZoneRepository(db),
		slots:    persistence.NewGormSlotRepository(db),
		vouchers: persistence.NewGormVoucherRepository(db),
		usages:   persistence.NewGormVoucherUsageRepository(db),
		orders:   persistence.NewGormOrderRepository(db),
		users:    persistence.NewGormUserRepository(db),
		outbox:   persistence.NewGormOutboxRepository(db),
		carts:    cache.NewInMemoryCartStore(time.Hour),
		gateway:  payment.NewStubGateway(webhookSecret, zap.NewNop()),
		metrics:  &countingMetrics{},
	}
	processed := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() {
		_ = h.carts.Close()
		_ = processed.Close()
	})

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)

	h.svc = NewService(Dependencies{
		Orders:    h.orders,
		Products:  h.products,
		Zones:     h.zones,
		Slots:     h.slots,
		Vouchers:  h.vouchers,
		Usages:    h.usages,
		Users:     h.users,
		Carts:     h.carts,
		Tx:        persistence.NewTransactionManager(db),
		Events:    event.NewOutboxPublisher(serializer, h.outbox),
		Payments:  h.gateway,
		Processed: processed,
		Metrics:   h.metrics,
		Logger:    zap.NewNop(),
	}, Config{Currency: "GBP", SlotBookingCutoff: 2 * time.Hour})

	ctx := context.Background()
	h.customer, err = identity.NewCustomer("ada@example.com", "correct-horse-9", "Ada Lovelace")
	require.NoError(t, err)
	require.NoError(t, h.users.Save(ctx, h.customer))

	h.zone, err = delivery.NewZone("Central", []string{"SW1"}, dec("3.99"), dec("20"))
	require.NoError(t, err)
	require.NoError(t, h.zones.Save(ctx, h.zone))
	h.slot = h.newSlot(h.zone.ID, 2)
	return h
}

func (h *harness) newSlot(zoneID uuid.UUID, capacity int) *delivery.Slot {
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour).UTC()
	slot, err := delivery.NewSlot(zoneID, start, start.Add(2*time.Hour), capacity)
	require.NoError(h.t, err)
	require.NoError(h.t, h.slots.Save(context.Background(), slot))
	return slot
}

func (h *harness) product(sku, price string, stock, threshold int) *catalog.Product {
	p, err := catalog.NewProduct(sku, "Product "+sku, uuid.New(), dec(price), catalog.UnitEach)
	require.NoError(h.t, err)
	require.NoError(h.t, p.SetLowStockThreshold(threshold))
	require.NoError(h.t, p.AdjustStock(stock, "initial"))
	require.NoError(h.t, h.products.Save(context.Background(), p))
	return p
}

func (h *harness) voucher(code string, vtype promotion.VoucherType, value string) *promotion.Voucher {
	v, err := promotion.NewVoucher(code, vtype, dec(value))
	require.NoError(h.t, err)
	require.NoError(h.t, h.vouchers.Save(context.Background(), v))
	return v
}

// limitedVoucher stores a fixed voucher with the given caps. A nil maxUses
// means unlimited.
func (h *harness) limitedVoucher(code string, maxUses *int, perUser int) *promotion.Voucher {
	v, err := promotion.NewVoucher(code, promotion.VoucherTypeFixed, dec("5"))
	require.NoError(h.t, err)
	require.NoError(h.t, v.SetLimits(decimal.Zero, nil, maxUses, perUser))
	require.NoError(h.t, h.vouchers.Save(context.Background(), v))
	return v
}

func (h *harness) addToCart(p *catalog.Product, quantity int) {
	ctx := context.Background()
	c, err := h.carts.Get(ctx, h.customer.ID)
	require.NoError(h.t, err)
	require.NoError(h.t, c.AddItem(p.ID, quantity))
	require.NoError(h.t, h.carts.Save(ctx, c))
}

func (h *harness) applyVoucher(code string) {
	ctx := context.Background()
	c, err := h.carts.Get(ctx, h.customer.ID)
	require.NoError(h.t, err)
	require.NoError(h.t, c.ApplyVoucher(code))
	require.NoError(h.t, h.carts.Save(ctx, c))
}

func (h *harness) request() CheckoutRequest {
	return CheckoutRequest{
		SlotID: h.slot.ID,
		Address: AddressRequest{
			Name:     "Ada Lovelace",
			Line1:    "1 Market St",
			City:     "London",
			Postcode: "sw1a 1aa",
			Phone:    "07700900000",
		},
		Notes: "Leave with concierge",
	}
}

func (h *harness) checkout(key string) (*CheckoutResponse, error) {
	return h.svc.Checkout(context.Background(), h.customer.ID, key, h.request())
}

func (h *harness) stock(p *catalog.Product) int {
	found, err := h.products.FindByID(context.Background(), p.ID)
	require.NoError(h.t, err)
	return found.Stock
}

func (h *harness) booked(slot *delivery.Slot) int {
	found, err := h.slots.FindByID(context.Background(), slot.ID)
	require.NoError(h.t, err)
	return found.Booked
}

func (h *harness) usedCount(v *promotion.Voucher) int {
	found, err := h.vouchers.FindByID(context.Background(), v.ID)
	require.NoError(h.t, err)
	return found.UsedCount
}

func (h *harness) order(id uuid.UUID) *ordering.Order {
	found, err := h.orders.FindByID(context.Background(), id)
	require.NoError(h.t, err)
	return found
}

// eventCounts counts pending outbox entries by event type
func (h *harness) eventCounts() map[string]int {
	entries, err := h.outbox.FindPending(context.Background(), 1000)
	require.NoError(h.t, err)
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.EventType]++
	}
	return counts
}

type countingMetrics struct {
	placed    int
	cancelled []string
	payments  []string
	rejected  []string
	vouchers  []string
}

func (m *countingMetrics) OrderPlaced(context.Context, decimal.Decimal, string) { m.placed++ }
func (m *countingMetrics) OrderCancelled(_ context.Context, reason string) {
	m.cancelled = append(m.cancelled, reason)
}
func (m *countingMetrics) PaymentEvent(_ context.Context, outcome string) {
	m.payments = append(m.payments, outcome)
}
func (m *countingMetrics) CheckoutRejected(_ context.Context, code string) {
	m.rejected = append(m.rejected, code)
}
func (m *countingMetrics) VoucherRedeemed(_ context.Context, code string) {
	m.vouchers = append(m.vouchers, code)
}

// failingGateway refuses to create payments
type failingGateway struct {
	ordering.PaymentGateway
}

func (failingGateway) CreatePayment(context.Context, ordering.PaymentRequest) (*ordering.PaymentIntent, error) {
	return nil, errors.New("provider unavailable")
}
