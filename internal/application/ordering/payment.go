package ordering

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrInvalidWebhook is returned for notifications that fail verification
var ErrInvalidWebhook = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")

// HandlePaymentWebhook verifies a provider notification and applies it to
// its order. Each event id is applied once; redeliveries are acknowledged
// without effect.
func (s *Service) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("rejected payment webhook", zap.Error(err))
		return ErrInvalidWebhook
	}
	if event.Type == ordering.PaymentEventIgnored {
		s.logger.Debug("ignoring payment event", zap.String("type", event.RawType))
		return nil
	}

	key := "payment-event:" + event.ID
	first, err := s.processed.MarkProcessed(ctx, key, s.config.WebhookDedupTTL)
	if err != nil {
		return err
	}
	if !first {
		s.logger.Info("duplicate payment event", zap.String("event_id", event.ID))
		return nil
	}

	if err := s.applyPaymentEvent(ctx, event); err != nil {
		// let the provider's retry through
		if ferr := s.processed.Forget(ctx, key); ferr != nil {
			s.logger.Warn("failed to forget payment event", zap.String("event_id", event.ID), zap.Error(ferr))
		}
		return err
	}
	s.metrics.PaymentEvent(ctx, string(event.Type))
	return nil
}

func (s *Service) applyPaymentEvent(ctx context.Context, event *ordering.PaymentEvent) error {
	order, err := s.findPaymentOrder(ctx, event)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("payment event for unknown order",
				zap.String("event_id", event.ID),
				zap.String("reference", event.Reference),
			)
			return nil
		}
		return err
	}

	log := s.logger.With(
		zap.String("event_id", event.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("type", string(event.Type)),
	)

	switch event.Type {
	case ordering.PaymentEventSucceeded:
		if order.IsPaid() || order.PaymentStatus == ordering.PaymentStatusRefunded {
			return nil
		}
		if order.Status == ordering.OrderStatusCancelled {
			// paid after expiry: the money goes straight back
			log.Warn("payment received for cancelled order, refunding")
			if err := s.payments.Refund(ctx, event.Reference, order.Total); err != nil {
				return err
			}
			return nil
		}
		if err := order.MarkPaid(event.Reference); err != nil {
			return err
		}
		log.Info("order paid")

	case ordering.PaymentEventFailed:
		if order.Status != ordering.OrderStatusPendingPayment {
			return nil
		}
		if err := order.MarkPaymentFailed(); err != nil {
			return err
		}
		log.Info("order payment failed")

	case ordering.PaymentEventRefunded:
		if order.PaymentStatus != ordering.PaymentStatusPaid {
			return nil
		}
		if err := order.MarkRefunded(); err != nil {
			return err
		}
		log.Info("order refunded by provider")

	default:
		return nil
	}
	return s.persist(ctx, order)
}

func (s *Service) findPaymentOrder(ctx context.Context, event *ordering.PaymentEvent) (*ordering.Order, error) {
	if event.OrderID != uuid.Nil {
		return s.orders.FindByID(ctx, event.OrderID)
	}
	if event.Reference == "" {
		return nil, shared.ErrNotFound
	}
	return s.orders.FindByPaymentReference(ctx, event.Reference)
}
