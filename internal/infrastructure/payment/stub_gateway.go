package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StubGateway stands in for Stripe in development. Payment intents are
// recorded but nothing is charged; webhooks are plain JSON documents signed
// with a hex HMAC-SHA256 of the body when a webhook secret is configured.
type StubGateway struct {
	webhookSecret string
	logger        *zap.Logger

	mu       sync.Mutex
	payments map[string]ordering.PaymentRequest
	refunds  map[string]decimal.Decimal
}

// StubWebhook is the body accepted by StubGateway.ParseWebhook
type StubWebhook struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Reference string    `json:"reference"`
	OrderID   uuid.UUID `json:"order_id"`
}

// NewStubGateway creates a stub gateway
func NewStubGateway(webhookSecret string, logger *zap.Logger) *StubGateway {
	return &StubGateway{
		webhookSecret: webhookSecret,
		logger:        logger,
		payments:      make(map[string]ordering.PaymentRequest),
		refunds:       make(map[string]decimal.Decimal),
	}
}

// NewGateway returns the Stripe gateway when enabled and the stub otherwise
func NewGateway(cfg config.StripeConfig, logger *zap.Logger) (ordering.PaymentGateway, error) {
	if !cfg.Enabled {
		logger.Warn("Stripe disabled, payments are simulated")
		return NewStubGateway(cfg.WebhookSecret, logger), nil
	}
	return NewStripeGateway(cfg, logger)
}

// CreatePayment records the request and returns a fake intent
func (g *StubGateway) CreatePayment(_ context.Context, req ordering.PaymentRequest) (*ordering.PaymentIntent, error) {
	ref := "pi_stub_" + req.OrderID.String()
	g.mu.Lock()
	g.payments[ref] = req
	g.mu.Unlock()
	g.logger.Info("Simulated payment intent",
		zap.String("order_number", req.OrderNumber),
		zap.String("amount", req.Amount.StringFixed(2)))
	return &ordering.PaymentIntent{
		Reference:    ref,
		ClientSecret: ref + "_secret",
		Status:       "requires_payment_method",
	}, nil
}

// Refund records the refund
func (g *StubGateway) Refund(_ context.Context, reference string, amount decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.payments[reference]; !ok {
		return fmt.Errorf("stub: unknown payment %q", reference)
	}
	g.refunds[reference] = amount
	return nil
}

// Refunded returns the refunded amount of a payment
func (g *StubGateway) Refunded(reference string) (decimal.Decimal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.refunds[reference]
	return amount, ok
}

// ParseWebhook verifies and decodes a StubWebhook
func (g *StubGateway) ParseWebhook(payload []byte, signature string) (*ordering.PaymentEvent, error) {
	if g.webhookSecret != "" && !hmac.Equal([]byte(signature), []byte(SignStubPayload(payload, g.webhookSecret))) {
		return nil, ErrInvalidSignature
	}
	var body StubWebhook
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("stub: decode webhook: %w", err)
	}
	ev := &ordering.PaymentEvent{
		ID:        body.ID,
		Reference: body.Reference,
		OrderID:   body.OrderID,
		RawType:   body.Type,
		Type:      ordering.PaymentEventIgnored,
	}
	switch ordering.PaymentEventType(body.Type) {
	case ordering.PaymentEventSucceeded, ordering.PaymentEventFailed, ordering.PaymentEventRefunded:
		ev.Type = ordering.PaymentEventType(body.Type)
	}
	return ev, nil
}

// SignStubPayload computes the signature StubGateway expects
func SignStubPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ ordering.PaymentGateway = (*StubGateway)(nil)
