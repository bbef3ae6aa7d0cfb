// Package payment adapts payment providers to ordering.PaymentGateway.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// Stripe event types the storefront reacts to
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"
)

const (
	metadataOrderID     = "order_id"
	metadataOrderNumber = "order_number"
)

// ErrInvalidSignature is returned when a webhook cannot be verified
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

// StripeGateway implements ordering.PaymentGateway with Stripe PaymentIntents
type StripeGateway struct {
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeGateway configures the Stripe client and returns the gateway
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe: secret key is required")
	}
	if !strings.HasPrefix(cfg.SecretKey, "sk_") && !strings.HasPrefix(cfg.SecretKey, "rk_") {
		return nil, errors.New("stripe: secret key must start with sk_ or rk_")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	stripe.Key = cfg.SecretKey
	return &StripeGateway{webhookSecret: cfg.WebhookSecret, logger: logger}, nil
}

// CreatePayment creates a PaymentIntent for the order total
func (g *StripeGateway) CreatePayment(ctx context.Context, req ordering.PaymentRequest) (*ordering.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String("Order " + req.OrderNumber),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderID, req.OrderID.String())
	params.AddMetadata(metadataOrderNumber, req.OrderNumber)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe payment intent",
			zap.String("order_number", req.OrderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	g.logger.Info("Created Stripe payment intent",
		zap.String("order_number", req.OrderNumber),
		zap.String("payment_intent", pi.ID))

	return &ordering.PaymentIntent{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// Refund refunds amount of the payment intent
func (g *StripeGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	if reference == "" {
		return errors.New("stripe: payment reference is required")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + reference)

	r, err := refund.New(params)
	if err != nil {
		g.logger.Error("Failed to refund Stripe payment",
			zap.String("payment_intent", reference),
			zap.Error(err))
		return fmt.Errorf("stripe: refund: %w", err)
	}
	g.logger.Info("Refunded Stripe payment",
		zap.String("payment_intent", reference),
		zap.String("refund_id", r.ID),
		zap.String("status", string(r.Status)))
	return nil
}

// ParseWebhook verifies the Stripe-Signature header and normalizes the event
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*ordering.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &ordering.PaymentEvent{
		ID:      event.ID,
		Type:    ordering.PaymentEventIgnored,
		RawType: string(event.Type),
	}

	switch string(event.Type) {
	case EventPaymentSucceeded, EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: decode payment intent: %w", err)
		}
		result.Reference = pi.ID
		result.OrderID = orderIDFromMetadata(pi.Metadata)
		result.Type = ordering.PaymentEventSucceeded
		if string(event.Type) == EventPaymentFailed {
			result.Type = ordering.PaymentEventFailed
		}
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("stripe: decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			result.Reference = ch.PaymentIntent.ID
		}
		result.OrderID = orderIDFromMetadata(ch.Metadata)
		result.Type = ordering.PaymentEventRefunded
	}
	return result, nil
}

func orderIDFromMetadata(md map[string]string) uuid.UUID {
	id, err := uuid.Parse(md[metadataOrderID])
	if err != nil {
		return uuid.Nil
	}
	return id
}

// toMinorUnits converts a decimal amount to the smallest currency unit
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

var _ ordering.PaymentGateway = (*StripeGateway)(nil)
