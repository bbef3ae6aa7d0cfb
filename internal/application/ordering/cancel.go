package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrCustomerCannotCancel is returned when a customer tries to cancel an
// order that is already paid
var ErrCustomerCannotCancel = shared.NewDomainError("INVALID_STATE", "This order can no longer be cancelled online; please contact us")

const expiryReason = "payment not received in time"

// Cancel cancels an order. Customers can only cancel orders awaiting
// payment; admins can also cancel paid orders that have not left the shop.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor, req CancelRequest) (*OrderResponse, error) {
	order, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && !order.CanCustomerCancel() {
		return nil, ErrCustomerCannotCancel
	}
	order, err = s.cancel(ctx, order, req.Reason)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// cancel releases everything checkout reserved: stock goes back, the slot
// is freed and an unpaid order's voucher redemption is reversed. A paid
// order is refunded through the provider after the cancellation commits.
func (s *Service) cancel(ctx context.Context, order *ordering.Order, reason string) (*ordering.Order, error) {
	wasPaid := order.IsPaid()
	if err := order.Cancel(reason); err != nil {
		return nil, err
	}

	var restored []*catalog.Product
	err := s.txm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orders.Save(txCtx, order); err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(order.Items))
		for i, item := range order.Items {
			ids[i] = item.ProductID
		}
		products, err := s.loadProducts(txCtx, ids)
		if err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.products.RestoreStock(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			if p, ok := products[item.ProductID]; ok {
				if err := p.RestoreStock(item.Quantity); err != nil {
					return err
				}
				restored = append(restored, p)
			}
		}
		if order.SlotID != uuid.Nil {
			if err := s.slots.Release(txCtx, order.SlotID); err != nil {
				return err
			}
		}
		if !wasPaid && order.VoucherID != nil {
			if err := s.vouchers.DecrementUsage(txCtx, *order.VoucherID); err != nil {
				return err
			}
			if err := s.usages.DeleteByOrder(txCtx, order.ID); err != nil {
				return err
			}
		}

		events := append([]shared.DomainEvent{}, order.GetDomainEvents()...)
		for _, p := range restored {
			events = append(events, p.GetDomainEvents()...)
		}
		return s.events.SaveEvents(txCtx, events...)
	})
	if err != nil {
		return nil, err
	}
	order.ClearDomainEvents()
	for _, p := range restored {
		p.ClearDomainEvents()
	}

	s.metrics.OrderCancelled(ctx, reason)
	s.logger.Info("order cancelled",
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", reason),
		zap.Bool("was_paid", wasPaid),
	)

	if wasPaid {
		s.refund(ctx, order)
	}
	return order, nil
}

// refund returns the captured amount. A failed refund is logged and left
// for the provider's charge.refunded notification or a manual refund.
func (s *Service) refund(ctx context.Context, order *ordering.Order) {
	if err := s.payments.Refund(ctx, order.PaymentReference, order.Total); err != nil {
		s.logger.Error("refund failed",
			zap.String("order_number", order.OrderNumber),
			zap.String("payment_reference", order.PaymentReference),
			zap.Error(err),
		)
		return
	}
	if err := order.MarkRefunded(); err != nil {
		s.logger.Error("failed to mark order refunded", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}
	if err := s.persist(ctx, order); err != nil {
		s.logger.Error("failed to save refunded order", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return
	}
	s.logger.Info("order refunded",
		zap.String("order_number", order.OrderNumber),
		zap.String("amount", order.Total.StringFixed(2)),
	)
}

// ExpirePendingOrders cancels up to limit orders that have waited for
// payment longer than olderThan. Orders that fail to cancel are logged and
// skipped so one bad order does not block the rest.
func (s *Service) ExpirePendingOrders(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	orders, err := s.orders.FindExpiredPending(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range orders {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		order := &orders[i]
		if _, err := s.cancel(ctx, order, expiryReason); err != nil {
			s.logger.Warn("failed to expire order",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
			continue
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info("expired unpaid orders", zap.Int("count", expired))
	}
	return expired, nil
}
