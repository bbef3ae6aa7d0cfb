package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/interfaces/http/dto"
)

// Stripe webhook payloads are small
const maxWebhookPayloadSize = 65536

// PaymentWebhookService verifies and applies payment provider notifications
type PaymentWebhookService interface {
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error
}

// StripeWebhookHandler receives Stripe notifications. The endpoint is
// unauthenticated; the signature header is the credential.
type StripeWebhookHandler struct {
	BaseHandler
	payments PaymentWebhookService
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(payments PaymentWebhookService) *StripeWebhookHandler {
	return &StripeWebhookHandler{payments: payments}
}

// StripeWebhookResponse acknowledges a notification
type StripeWebhookResponse struct {
	Received bool `json:"received" example:"true"`
}

// HandleStripeWebhook godoc
// @Summary      Stripe webhook
// @Description  Marks orders paid or payment-failed from payment_intent events. Duplicate deliveries are acknowledged without effect.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe webhook signature"
// @Success      200 {object} dto.Response{data=StripeWebhookResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/stripe [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	// The raw body is needed for signature verification
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Payload too large")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Missing Stripe-Signature header")
		return
	}

	if err := h.payments.HandlePaymentWebhook(c.Request.Context(), payload, signature); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, StripeWebhookResponse{Received: true})
}
