package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/ordering"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader carries the client's checkout retry key
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// OrderService is the part of ordering.Service the handler uses
type OrderService interface {
	Checkout(ctx context.Context, userID uuid.UUID, idempotencyKey string, req ordering.CheckoutRequest) (*ordering.CheckoutResponse, error)
	Get(ctx context.Context, id uuid.UUID, actor ordering.Actor) (*ordering.OrderResponse, error)
	ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) (shared.Paginated[ordering.OrderResponse], error)
	List(ctx context.Context, f ordering.OrderFilter) (shared.Paginated[ordering.OrderResponse], error)
	Cancel(ctx context.Context, id uuid.UUID, actor ordering.Actor, req ordering.CancelRequest) (*ordering.OrderResponse, error)
	AdvanceStatus(ctx context.Context, id uuid.UUID, req ordering.AdvanceStatusRequest) (*ordering.OrderResponse, error)
	RetryPayment(ctx context.Context, id uuid.UUID, actor ordering.Actor) (*ordering.CheckoutResponse, error)
	Invoice(ctx context.Context, id uuid.UUID, format string) (*ordering.Document, error)
}

// OrderHandler handles checkout and order endpoints
type OrderHandler struct {
	BaseHandler
	orders OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) actor(c *gin.Context) (ordering.Actor, bool) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return ordering.Actor{}, false
	}
	return ordering.Actor{UserID: userID, Admin: middleware.IsAdmin(c)}, true
}

// Checkout godoc
// @Summary      Place an order from the cart
// @Description  Books the slot, deducts stock, redeems the voucher and starts payment in one transaction.
// @Description  Repeating a request with the same Idempotency-Key returns the original order with status 200.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client retry key"
// @Param        request body ordering.CheckoutRequest true "Slot and address"
// @Success      201 {object} dto.Response{data=ordering.CheckoutResponse}
// @Success      200 {object} dto.Response{data=ordering.CheckoutResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, fmt.Sprintf("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKeyLength))
		return
	}
	var req ordering.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.orders.Checkout(c.Request.Context(), userID, key, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replay {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// ListMine godoc
// @Summary      The customer's orders, newest first
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	result, err := h.orders.ListForUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, result)
}

// Get godoc
// @Summary      Get order
// @Description  Customers only see their own orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel godoc
// @Summary      Cancel order
// @Description  Releases the slot, restores stock and the voucher use, and refunds a captured payment
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body ordering.CancelRequest true "Reason"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req ordering.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// RetryPayment godoc
// @Summary      Re-issue the payment intent of an unpaid order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=ordering.CheckoutResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id}/payment [post]
func (h *OrderHandler) RetryPayment(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.orders.RetryPayment(c.Request.Context(), id, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AdminList godoc
// @Summary      List orders
// @Tags         admin-orders
// @Produce      json
// @Param        search query string false "Order number, name or postcode"
// @Param        status query string false "Order status"
// @Param        payment_status query string false "Payment status"
// @Param        user_id query string false "Customer ID"
// @Param        from query string false "Created from (YYYY-MM-DD)"
// @Param        to query string false "Created to (YYYY-MM-DD)"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	var f ordering.OrderFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.orders.List(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, result)
}

// AdvanceStatus godoc
// @Summary      Move an order along the fulfilment flow
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body ordering.AdvanceStatusRequest true "Next status"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [put]
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req ordering.AdvanceStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.AdvanceStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Invoice godoc
// @Summary      Download the order invoice
// @Tags         admin-orders
// @Produce      application/pdf
// @Produce      text/html
// @Param        id path string true "Order ID"
// @Param        format query string false "Output format" Enums(pdf, html)
// @Success      200 {file} file
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	format := c.DefaultQuery("format", ordering.InvoiceFormatPDF)
	if format != ordering.InvoiceFormatPDF && format != ordering.InvoiceFormatHTML {
		h.BadRequest(c, "format must be pdf or html")
		return
	}
	doc, err := h.orders.Invoice(c.Request.Context(), id, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.FileName))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
