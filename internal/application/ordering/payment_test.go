package ordering

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/infrastructure/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) webhook(id, eventType, reference string, orderID uuid.UUID) error {
	payload, err := json.Marshal(payment.StubWebhook{ID: id, Type: eventType, Reference: reference, OrderID: orderID})
	require.NoError(h.t, err)
	return h.svc.HandlePaymentWebhook(context.Background(), payload, payment.SignStubPayload(payload, webhookSecret))
}

func (h *harness) placeOrder() *CheckoutResponse {
	h.addToCart(h.product("PST-"+uuid.NewString()[:4], "6.00", 30, 2), 5)
	resp, err := h.checkout("")
	require.NoError(h.t, err)
	return resp
}

func TestHandlePaymentWebhook_Succeeded(t *testing.T) {
	h := newHarness(t)
	placed := h.placeOrder()

	require.NoError(t, h.webhook("evt_1", "succeeded", placed.Payment.Reference, uuid.Nil))

	o := h.order(placed.Order.ID)
	assert.Equal(t, ordering.OrderStatusPaid, o.Status)
	assert.Equal(t, ordering.PaymentStatusPaid, o.PaymentStatus)
	assert.NotNil(t, o.PaidAt)
	assert.Equal(t, 1, h.eventCounts()[ordering.EventTypeOrderPaid])
	assert.Equal(t, []string{"succeeded"}, h.metrics.payments)
}

func TestHandlePaymentWebhook_DuplicateIsIgnored(t *testing.T) {
	h := newHarness(t)
	placed := h.placeOrder()

	require.NoError(t, h.webhook("evt_1", "succeeded", "", placed.Order.ID))
	require.NoError(t, h.webhook("evt_1", "succeeded", "", placed.Order.ID))

	assert.Equal(t, 1, h.eventCounts()[ordering.EventTypeOrderPaid])
	assert.Len(t, h.metrics.payments, 1)
}

func TestHandlePaymentWebhook_InvalidSignature(t *testing.T) {
	h := newHarness(t)
	placed := h.placeOrder()
	payload, err := json.Marshal(payment.StubWebhook{ID: "evt_1", Type: "succeeded", OrderID: placed.Order.ID})
	require.NoError(t, err)

	err = h.svc.HandlePaymentWebhook(context.Background(), payload, "forged")
	assert.ErrorIs(t, err, ErrInvalidWebhook)
	assert.Equal(t, ordering.OrderStatusPendingPayment, h.order(placed.Order.ID).Status)
}

func TestHandlePaymentWebhook_FailedKeepsOrderPending(t *testing.T) {
	h := newHarness(t)
	placed := h.placeOrder()

	require.NoError(t, h.webhook("evt_2", "failed", placed.Payment.Reference, uuid.Nil))

	o := h.order(placed.Order.ID)
	assert.Equal(t, ordering.OrderStatusPendingPayment, o.Status)
	assert.Equal(t, ordering.PaymentStatusFailed, o.PaymentStatus)

	// a later success still pays the order
	require.NoError(t, h.webhook("evt_3", "succeeded", placed.Payment.Reference, uuid.Nil))
	assert.Equal(t, ordering.OrderStatusPaid, h.order(placed.Order.ID).Status)
}

func TestHandlePaymentWebhook_IgnoredAndUnknown(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.webhook("evt_4", "payment_intent.created", "pi_x", uuid.Nil))
	require.NoError(t, h.webhook("evt_5", "succeeded", "pi_unknown", uuid.Nil))
	assert.Empty(t, h.eventCounts())
}

func TestHandlePaymentWebhook_RefundedByProvider(t *testing.T) {
	h := newHarness(t)
	placed := h.placeOrder()
	require.NoError(t, h.webhook("evt_1", "succeeded", placed.Payment.Reference, uuid.Nil))

	require.NoError(t, h.webhook("evt_2", "refunded", placed.Payment.Reference, uuid.Nil))

	o := h.order(placed.Order.ID)
	assert.Equal(t, ordering.OrderStatusRefunded, o.Status)
	assert.Equal(t, ordering.PaymentStatusRefunded, o.PaymentStatus)
}

func TestHandlePaymentWebhook_PaymentAfterExpiryIsRefunded(t *testing.T) {
	h := newHarness(t)
	placed := h.placeOrder()
	_, err := h.svc.Cancel(context.Background(), placed.Order.ID, Actor{UserID: h.customer.ID}, CancelRequest{Reason: "changed my mind"})
	require.NoError(t, err)

	require.NoError(t, h.webhook("evt_late", "succeeded", placed.Payment.Reference, uuid.Nil))

	amount, ok := h.gateway.Refunded(placed.Payment.Reference)
	require.True(t, ok)
	assert.True(t, placed.Order.Total.Equal(amount))
	assert.Equal(t, ordering.OrderStatusCancelled, h.order(placed.Order.ID).Status)
}
