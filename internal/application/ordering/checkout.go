package ordering

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart           = shared.NewDomainError("EMPTY_CART", "Your cart is empty")
	ErrSlotZoneMismatch    = shared.NewDomainError("SLOT_ZONE_MISMATCH", "The delivery slot does not serve this postcode")
	ErrPaymentUnavailable  = shared.NewDomainError("PAYMENT_UNAVAILABLE", "Payment could not be started; please try again")
	ErrIdempotencyKeyTaken = shared.NewDomainError("IDEMPOTENCY_KEY_REUSED", "This Idempotency-Key was already used for a different order")
)

// Checkout turns the customer's cart into an order. Stock, the slot and the
// voucher are reserved in one transaction together with the order and its
// events; the payment intent is created after commit. If the provider
// refuses, the order is cancelled and its reservations are released.
//
// A non-empty idempotencyKey makes the call replayable: a repeat returns the
// order created by the first call.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, idempotencyKey string, req CheckoutRequest) (*CheckoutResponse, error) {
	if idempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, userID, idempotencyKey)
		switch {
		case err == nil:
			return s.replay(ctx, existing)
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}

	resp, err := s.checkout(ctx, userID, idempotencyKey, req)
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			s.metrics.CheckoutRejected(ctx, de.Code)
			s.logger.Info("checkout rejected",
				zap.String("user_id", userID.String()),
				zap.String("code", de.Code),
			)
		}
		return nil, err
	}
	return resp, nil
}

func (s *Service) checkout(ctx context.Context, userID uuid.UUID, idempotencyKey string, req CheckoutRequest) (*CheckoutResponse, error) {
	basket, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if basket.IsEmpty() {
		return nil, ErrEmptyCart
	}
	for _, item := range basket.Items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Cart quantities must be positive")
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	address, err := valueobject.NewAddress(req.Address.Name, req.Address.Line1, req.Address.Line2,
		req.Address.City, req.Address.Postcode, req.Address.Phone)
	if err != nil {
		return nil, err
	}
	postcode, err := valueobject.NewPostcode(address.Postcode)
	if err != nil {
		return nil, err
	}
	zones, err := s.zones.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	zone, err := delivery.ResolveZone(zones, postcode)
	if err != nil {
		return nil, err
	}

	order, err := ordering.NewOrder(userID, address)
	if err != nil {
		return nil, err
	}
	order.SetNotes(req.Notes)
	order.IdempotencyKey = idempotencyKey

	var (
		voucher *promotion.Voucher
		touched []*catalog.Product
	)
	err = s.txm.WithinTransaction(ctx, func(txCtx context.Context) error {
		products, err := s.loadProducts(txCtx, basket.ProductIDs())
		if err != nil {
			return err
		}
		for _, item := range basket.Items {
			p, ok := products[item.ProductID]
			if !ok || !p.IsActive() {
				return shared.NewDomainError("PRODUCT_UNAVAILABLE", "A product in your cart is no longer available")
			}
			if err := order.AddItem(p.ID, p.Name, p.SKU, string(p.Unit), p.Price, item.Quantity); err != nil {
				return err
			}
		}

		subtotal := ordering.Quote(order.Lines(), decimal.Zero, decimal.Zero).Subtotal
		if err := zone.CheckMinimumOrder(subtotal); err != nil {
			return err
		}

		slot, err := s.bookSlot(txCtx, req.SlotID, zone)
		if err != nil {
			return err
		}
		order.SetDelivery(zone.ID, slot.ID, slot.StartAt, slot.EndAt, zone.FeeFor(subtotal))

		if basket.VoucherCode != "" {
			v, discount, err := s.redeemVoucher(txCtx, basket.VoucherCode, subtotal, userID)
			if err != nil {
				return err
			}
			voucher = v
			order.ApplyVoucher(v.ID, v.Code, discount)
		}

		for _, item := range order.Items {
			p := products[item.ProductID]
			if err := s.products.DeductStock(txCtx, p.ID, item.Quantity); err != nil {
				return err
			}
			if err := p.DeductStock(item.Quantity); err != nil {
				return err
			}
			touched = append(touched, p)
		}

		if err := order.Place(); err != nil {
			return err
		}
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		if voucher != nil {
			usage := promotion.NewUsage(voucher.ID, userID, order.ID, order.Discount)
			if err := s.usages.Save(txCtx, usage); err != nil {
				return err
			}
		}

		events := append([]shared.DomainEvent{}, order.GetDomainEvents()...)
		for _, p := range touched {
			events = append(events, lowStockEvents(p)...)
		}
		return s.events.SaveEvents(txCtx, events...)
	})
	if err != nil {
		if idempotencyKey != "" && errors.Is(err, shared.ErrAlreadyExists) {
			// a concurrent request with the same key won the insert
			if existing, ferr := s.orders.FindByIdempotencyKey(ctx, userID, idempotencyKey); ferr == nil {
				return s.replay(ctx, existing)
			}
			return nil, ErrIdempotencyKeyTaken
		}
		return nil, err
	}
	order.ClearDomainEvents()
	for _, p := range touched {
		p.ClearDomainEvents()
	}

	if err := s.carts.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to clear cart after checkout",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
	s.metrics.OrderPlaced(ctx, order.Total, zone.Name)
	if voucher != nil {
		s.metrics.VoucherRedeemed(ctx, voucher.Code)
	}
	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("zone", zone.Name),
	)

	intent, err := s.startPayment(ctx, order, user.Email)
	if err != nil {
		s.logger.Error("payment intent failed, cancelling order",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		if _, cerr := s.cancel(ctx, order, "payment could not be started"); cerr != nil {
			s.logger.Error("failed to cancel order after payment failure",
				zap.String("order_number", order.OrderNumber),
				zap.Error(cerr),
			)
		}
		return nil, ErrPaymentUnavailable
	}

	return &CheckoutResponse{Order: ToOrderResponse(order), Payment: toPaymentResponse(intent)}, nil
}

// replay answers a repeated checkout with the original order. A pending
// order gets its payment intent again so the client can continue.
func (s *Service) replay(ctx context.Context, order *ordering.Order) (*CheckoutResponse, error) {
	resp := &CheckoutResponse{Order: ToOrderResponse(order), Replay: true}
	if order.Status != ordering.OrderStatusPendingPayment {
		return resp, nil
	}
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}
	intent, err := s.startPayment(ctx, order, user.Email)
	if err != nil {
		s.logger.Warn("payment intent replay failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return resp, nil
	}
	resp.Order = ToOrderResponse(order)
	resp.Payment = toPaymentResponse(intent)
	return resp, nil
}

func (s *Service) loadProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

// bookSlot checks the slot belongs to the zone and is still open, then
// takes one unit of its capacity
func (s *Service) bookSlot(ctx context.Context, slotID uuid.UUID, zone *delivery.Zone) (*delivery.Slot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, delivery.ErrSlotUnavailable
		}
		return nil, err
	}
	if slot.ZoneID != zone.ID {
		return nil, ErrSlotZoneMismatch
	}
	if err := slot.Book(s.now(), s.config.SlotBookingCutoff); err != nil {
		return nil, err
	}
	if err := s.slots.Book(ctx, slot.ID); err != nil {
		return nil, err
	}
	return slot, nil
}

// redeemVoucher validates the code and records one redemption. The voucher
// row stays locked until the checkout commits, so two checkouts by the same
// customer cannot both pass the per-user limit.
func (s *Service) redeemVoucher(ctx context.Context, code string, subtotal decimal.Decimal, userID uuid.UUID) (*promotion.Voucher, decimal.Decimal, error) {
	v, err := s.vouchers.LockByCode(ctx, promotion.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, decimal.Zero, promotion.ErrVoucherNotFound
		}
		return nil, decimal.Zero, err
	}
	used := 0
	if v.PerUserLimit > 0 {
		n, err := s.usages.CountByVoucherAndUser(ctx, v.ID, userID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		used = int(n)
	}
	if err := v.Validate(subtotal, s.now(), used); err != nil {
		return nil, decimal.Zero, err
	}
	if err := s.vouchers.IncrementUsage(ctx, v.ID); err != nil {
		return nil, decimal.Zero, err
	}
	return v, v.Discount(subtotal), nil
}

// lowStockEvents keeps the alert events raised by an in-memory stock change;
// the stock itself is written by the repository's atomic update
func lowStockEvents(p *catalog.Product) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, ev := range p.GetDomainEvents() {
		if ev.EventType() == catalog.EventTypeProductLowStock {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Service) startPayment(ctx context.Context, order *ordering.Order, email string) (*ordering.PaymentIntent, error) {
	intent, err := s.payments.CreatePayment(ctx, ordering.PaymentRequest{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Amount:         order.Total,
		Currency:       s.config.Currency,
		CustomerEmail:  email,
		IdempotencyKey: "order-" + order.ID.String(),
	})
	if err != nil {
		return nil, err
	}
	if order.PaymentReference != intent.Reference {
		if err := order.AttachPayment(intent.Reference); err != nil {
			return nil, err
		}
		if err := s.persist(ctx, order); err != nil {
			return nil, err
		}
	}
	return intent, nil
}

// RetryPayment issues the payment intent of a pending order again, for
// example after a declined card
func (s *Service) RetryPayment(ctx context.Context, id uuid.UUID, actor Actor) (*CheckoutResponse, error) {
	order, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if order.Status != ordering.OrderStatusPendingPayment {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Order %s is %s and does not need payment", order.OrderNumber, order.Status)
	}
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		return nil, err
	}
	intent, err := s.startPayment(ctx, order, user.Email)
	if err != nil {
		s.logger.Error("payment intent failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return nil, ErrPaymentUnavailable
	}
	return &CheckoutResponse{Order: ToOrderResponse(order), Payment: toPaymentResponse(intent)}, nil
}
