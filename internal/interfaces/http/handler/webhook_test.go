package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestStripeWebhookHandler(t *testing.T) {
	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`

	tests := []struct {
		name      string
		body      string
		signature string
		svcErr    error
		called    bool
		status    int
	}{
		{name: "accepted", body: payload, signature: "t=1,v1=abc", called: true, status: http.StatusOK},
		{name: "missing signature", body: payload, status: http.StatusBadRequest},
		{name: "bad signature", body: payload, signature: "t=1,v1=bad", called: true,
			svcErr: shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed"), status: http.StatusBadRequest},
		{name: "payments disabled", body: payload, signature: "t=1,v1=abc", called: true,
			svcErr: shared.NewDomainError("PAYMENT_UNAVAILABLE", "Payments are not configured"), status: http.StatusServiceUnavailable},
		{name: "processing failure", body: payload, signature: "t=1,v1=abc", called: true,
			svcErr: errors.New("db down"), status: http.StatusInternalServerError},
		{name: "too large", body: strings.Repeat("x", maxWebhookPayloadSize+1), signature: "t=1,v1=abc", status: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockWebhookService)
			h := NewStripeWebhookHandler(svc)
			r := newTestRouter()
			r.POST("/webhooks/stripe", h.HandleStripeWebhook)

			if tt.called {
				svc.On("HandlePaymentWebhook", mock.Anything, []byte(tt.body), tt.signature).Return(tt.svcErr)
			}

			req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("Stripe-Signature", tt.signature)
			}
			w := serve(r, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.called {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "HandlePaymentWebhook", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
