package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/ordering"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func checkoutBody(slotID uuid.UUID) ordering.CheckoutRequest {
	return ordering.CheckoutRequest{
		SlotID: slotID,
		Address: ordering.AddressRequest{
			Name:     "Ann Baker",
			Line1:    "1 High Street",
			City:     "Leeds",
			Postcode: "LS1 4AP",
			Phone:    "+447700900123",
		},
	}
}

func TestOrderHandler_Checkout(t *testing.T) {
	svc := new(mockOrderService)
	h := NewOrderHandler(svc)
	userID := uuid.New()
	r := newTestRouter(asUser(userID, "customer"))
	r.POST("/orders", h.Checkout)

	body := checkoutBody(uuid.New())
	orderID := uuid.New()
	svc.On("Checkout", mock.Anything, userID, "key-1", body).Return(&ordering.CheckoutResponse{
		Order:   ordering.OrderResponse{ID: orderID, OrderNumber: "GR-000001"},
		Payment: &ordering.PaymentResponse{Reference: "pi_1", ClientSecret: "secret", Status: "requires_payment_method"},
	}, nil).Once()
	svc.On("Checkout", mock.Anything, userID, "key-1", body).Return(&ordering.CheckoutResponse{
		Order:  ordering.OrderResponse{ID: orderID, OrderNumber: "GR-000001"},
		Replay: true,
	}, nil).Once()

	send := func() *httptest.ResponseRecorder {
		req := newJSONRequest(t, http.MethodPost, "/orders", body)
		req.Header.Set(IdempotencyKeyHeader, "key-1")
		return serve(r, req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	var resp ordering.CheckoutResponse
	decodeData(t, first, &resp)
	assert.Equal(t, orderID, resp.Order.ID)
	assert.Equal(t, "secret", resp.Payment.ClientSecret)

	replay := send()
	assert.Equal(t, http.StatusOK, replay.Code)
	svc.AssertExpectations(t)
}

func TestOrderHandler_CheckoutRejectsLongIdempotencyKey(t *testing.T) {
	svc := new(mockOrderService)
	h := NewOrderHandler(svc)
	r := newTestRouter(asUser(uuid.New(), "customer"))
	r.POST("/orders", h.Checkout)

	req := newJSONRequest(t, http.MethodPost, "/orders", checkoutBody(uuid.New()))
	req.Header.Set(IdempotencyKeyHeader, strings.Repeat("k", maxIdempotencyKeyLength+1))
	w := serve(r, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderHandler_CheckoutSlotFull(t *testing.T) {
	svc := new(mockOrderService)
	h := NewOrderHandler(svc)
	userID := uuid.New()
	r := newTestRouter(asUser(userID, "customer"))
	r.POST("/orders", h.Checkout)

	body := checkoutBody(uuid.New())
	svc.On("Checkout", mock.Anything, userID, "", body).Return(nil, shared.NewDomainError("SLOT_FULL", "Delivery slot is full"))

	w := doRequest(t, r, http.MethodPost, "/orders", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "SLOT_FULL", decode(t, w).Error.Code)
}

func TestOrderHandler_GetPassesActor(t *testing.T) {
	svc := new(mockOrderService)
	h := NewOrderHandler(svc)
	adminID := uuid.New()
	r := newTestRouter(asUser(adminID, middleware.RoleAdmin))
	r.GET("/admin/orders/:id", h.Get)

	id := uuid.New()
	svc.On("Get", mock.Anything, id, ordering.Actor{UserID: adminID, Admin: true}).
		Return(&ordering.OrderResponse{ID: id}, nil)

	w := doRequest(t, r, http.MethodGet, "/admin/orders/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestOrderHandler_CancelNeedsReason(t *testing.T) {
	svc := new(mockOrderService)
	h := NewOrderHandler(svc)
	r := newTestRouter(asUser(uuid.New(), "customer"))
	r.POST("/orders/:id/cancel", h.Cancel)

	w := doRequest(t, r, http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_AdvanceStatusRejectsUnknownStatus(t *testing.T) {
	svc := new(mockOrderService)
	h := NewOrderHandler(svc)
	r := newTestRouter(asUser(uuid.New(), middleware.RoleAdmin))
	r.PUT("/admin/orders/:id/status", h.AdvanceStatus)

	w := doRequest(t, r, http.MethodPut, "/admin/orders/"+uuid.NewString()+"/status", map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Invoice(t *testing.T) {
	svc := new(mockOrderService)
	h := NewOrderHandler(svc)
	r := newTestRouter(asUser(uuid.New(), middleware.RoleAdmin))
	r.GET("/admin/orders/:id/invoice", h.Invoice)

	id := uuid.New()
	svc.On("Invoice", mock.Anything, id, "html").Return(&ordering.Document{
		FileName:    "GR-000001.html",
		ContentType: "text/html; charset=utf-8",
		Body:        []byte("<html>invoice</html>"),
	}, nil)
	svc.On("Invoice", mock.Anything, id, "pdf").Return(nil, ordering.ErrInvoiceUnavailable)

	w := doRequest(t, r, http.MethodGet, "/admin/orders/"+id.String()+"/invoice?format=html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "GR-000001.html")
	assert.Equal(t, "<html>invoice</html>", w.Body.String())

	w = doRequest(t, r, http.MethodGet, "/admin/orders/"+id.String()+"/invoice", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(t, r, http.MethodGet, "/admin/orders/"+id.String()+"/invoice?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
