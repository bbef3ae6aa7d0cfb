// Package ordering contains checkout, order management and payment use
// cases.
package ordering

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/cart"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/identity"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Metrics records business counters for orders and payments
type Metrics interface {
	OrderPlaced(ctx context.Context, total decimal.Decimal, zone string)
	OrderCancelled(ctx context.Context, reason string)
	PaymentEvent(ctx context.Context, outcome string)
	CheckoutRejected(ctx context.Context, code string)
	VoucherRedeemed(ctx context.Context, code string)
}

type nopMetrics struct{}

func (nopMetrics) OrderPlaced(context.Context, decimal.Decimal, string) {}
func (nopMetrics) OrderCancelled(context.Context, string)               {}
func (nopMetrics) PaymentEvent(context.Context, string)                 {}
func (nopMetrics) CheckoutRejected(context.Context, string)             {}
func (nopMetrics) VoucherRedeemed(context.Context, string)              {}

// Config holds checkout and payment rules
type Config struct {
	Currency          string
	SlotBookingCutoff time.Duration
	// WebhookDedupTTL is how long processed payment events are remembered
	WebhookDedupTTL time.Duration
	Location        *time.Location
}

// Dependencies are the collaborators of Service
type Dependencies struct {
	Orders    ordering.OrderRepository
	Products  catalog.ProductRepository
	Zones     delivery.ZoneRepository
	Slots     delivery.SlotRepository
	Vouchers  promotion.VoucherRepository
	Usages    promotion.UsageRepository
	Users     identity.UserRepository
	Carts     cart.Store
	Tx        shared.TransactionManager
	Events    shared.OutboxEventSaver
	Payments  ordering.PaymentGateway
	Processed shared.IdempotencyStore
	Invoices  InvoiceRenderer
	PDF       PDFConverter
	Metrics   Metrics
	Logger    *zap.Logger
}

// Actor is who performs an order operation
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// System is the actor used by background jobs
var System = Actor{Admin: true}

// Service implements the order use cases
type Service struct {
	orders    ordering.OrderRepository
	products  catalog.ProductRepository
	zones     delivery.ZoneRepository
	slots     delivery.SlotRepository
	vouchers  promotion.VoucherRepository
	usages    promotion.UsageRepository
	users     identity.UserRepository
	carts     cart.Store
	txm       shared.TransactionManager
	events    shared.OutboxEventSaver
	payments  ordering.PaymentGateway
	processed shared.IdempotencyStore
	invoices  InvoiceRenderer
	pdf       PDFConverter
	metrics   Metrics
	logger    *zap.Logger
	config    Config
	now       func() time.Time
}

// NewService creates a new order Service
func NewService(deps Dependencies, config Config) *Service {
	if config.Currency == "" {
		config.Currency = "GBP"
	}
	if config.SlotBookingCutoff < 0 {
		config.SlotBookingCutoff = delivery.DefaultBookingCutoff
	}
	if config.WebhookDedupTTL <= 0 {
		config.WebhookDedupTTL = 72 * time.Hour
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:    deps.Orders,
		products:  deps.Products,
		zones:     deps.Zones,
		slots:     deps.Slots,
		vouchers:  deps.Vouchers,
		usages:    deps.Usages,
		users:     deps.Users,
		carts:     deps.Carts,
		txm:       deps.Tx,
		events:    deps.Events,
		payments:  deps.Payments,
		processed: deps.Processed,
		invoices:  deps.Invoices,
		pdf:       deps.PDF,
		metrics:   metrics,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Get returns an order. Customers only see their own orders.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actor Actor) (*OrderResponse, error) {
	order, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// load fetches an order visible to the actor. Other customers' orders are
// reported as not found.
func (s *Service) load(ctx context.Context, id uuid.UUID, actor Actor) (*ordering.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && order.UserID != actor.UserID {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

// ListForUser returns a customer's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) (shared.Paginated[OrderResponse], error) {
	return s.List(ctx, OrderFilter{UserID: userID.String(), Page: page, PageSize: pageSize})
}

// List returns orders matching the filter
func (s *Service) List(ctx context.Context, f OrderFilter) (shared.Paginated[OrderResponse], error) {
	filter, err := s.toDomainFilter(f)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	orders, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[OrderResponse]{}, err
	}
	items := make([]OrderResponse, len(orders))
	for i := range orders {
		items[i] = ToOrderResponse(&orders[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

func (s *Service) toDomainFilter(f OrderFilter) (shared.Filter, error) {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	if f.Status != "" {
		if !ordering.OrderStatus(f.Status).IsValid() {
			return filter, shared.NewDomainErrorf("INVALID_STATUS", "Unknown order status: %s", f.Status)
		}
		filter.Filters[ordering.FilterKeyStatus] = f.Status
	}
	if f.PaymentStatus != "" {
		if !ordering.PaymentStatus(f.PaymentStatus).IsValid() {
			return filter, shared.NewDomainErrorf("INVALID_STATUS", "Unknown payment status: %s", f.PaymentStatus)
		}
		filter.Filters[ordering.FilterKeyPaymentStatus] = f.PaymentStatus
	}
	if f.UserID != "" {
		id, err := uuid.Parse(f.UserID)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "user_id must be a UUID")
		}
		filter.Filters[ordering.FilterKeyUserID] = id
	}
	if f.From != "" {
		from, err := time.ParseInLocation("2006-01-02", f.From, s.config.Location)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "from must use the YYYY-MM-DD format")
		}
		filter.Filters[ordering.FilterKeyFrom] = from
	}
	if f.To != "" {
		to, err := time.ParseInLocation("2006-01-02", f.To, s.config.Location)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "to must use the YYYY-MM-DD format")
		}
		filter.Filters[ordering.FilterKeyTo] = to.AddDate(0, 0, 1)
	}
	return filter, nil
}

// AdvanceStatus applies an admin fulfilment transition
func (s *Service) AdvanceStatus(ctx context.Context, id uuid.UUID, req AdvanceStatusRequest) (*OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := order.AdvanceTo(ordering.OrderStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}
	s.logger.Info("order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)),
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// persist saves the order and its events in one transaction
func (s *Service) persist(ctx context.Context, order *ordering.Order) error {
	err := s.txm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		return s.events.SaveEvents(txCtx, order.GetDomainEvents()...)
	})
	if err != nil {
		return err
	}
	order.ClearDomainEvents()
	return nil
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
