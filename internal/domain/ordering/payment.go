package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRequest asks the provider to collect an order total
type PaymentRequest struct {
	OrderID        uuid.UUID
	OrderNumber    string
	Amount         decimal.Decimal
	Currency       string
	CustomerEmail  string
	IdempotencyKey string
}

// PaymentIntent is the provider's handle for a pending payment
type PaymentIntent struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// PaymentEventType is a normalized provider notification type
type PaymentEventType string

const (
	PaymentEventSucceeded PaymentEventType = "succeeded"
	PaymentEventFailed    PaymentEventType = "failed"
	PaymentEventRefunded  PaymentEventType = "refunded"
	PaymentEventIgnored   PaymentEventType = "ignored"
)

// PaymentEvent is a verified provider notification
type PaymentEvent struct {
	ID        string
	Type      PaymentEventType
	Reference string
	OrderID   uuid.UUID
	RawType   string
}

// PaymentGateway abstracts the payment provider
type PaymentGateway interface {
	// CreatePayment creates a payment intent for an order
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentIntent, error)
	// Refund refunds the full captured amount of a payment
	Refund(ctx context.Context, reference string, amount decimal.Decimal) error
	// ParseWebhook verifies the signature and normalizes the notification
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}
