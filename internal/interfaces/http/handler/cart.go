package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/cart"
)

// CartService is the part of cart.Service the handler uses
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*cart.View, error)
	AddItem(ctx context.Context, userID uuid.UUID, req cart.AddItemRequest) (*cart.View, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.View, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ApplyVoucher(ctx context.Context, userID uuid.UUID, code string) (*cart.View, error)
	RemoveVoucher(ctx context.Context, userID uuid.UUID) (*cart.View, error)
	SetPostcode(ctx context.Context, userID uuid.UUID, postcode string) (*cart.View, error)
}

// CartHandler handles the signed-in customer's cart
type CartHandler struct {
	BaseHandler
	carts CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) respond(c *gin.Context, view *cart.View, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// Get godoc
// @Summary      Current cart with priced totals
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cart.View}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	view, err := h.carts.Get(c.Request.Context(), userID)
	h.respond(c, view, err)
}

// AddItem godoc
// @Summary      Add a product to the cart
// @Description  Adds to the existing quantity when the product is already in the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cart.AddItemRequest true "Product and quantity"
// @Success      200 {object} dto.Response{data=cart.View}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req cart.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	view, err := h.carts.AddItem(c.Request.Context(), userID, req)
	h.respond(c, view, err)
}

// SetQuantity godoc
// @Summary      Set the quantity of a cart line
// @Description  A quantity of zero removes the line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        product_id path string true "Product ID"
// @Param        request body cart.SetQuantityRequest true "Quantity"
// @Success      200 {object} dto.Response{data=cart.View}
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [put]
func (h *CartHandler) SetQuantity(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	var req cart.SetQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	view, err := h.carts.SetQuantity(c.Request.Context(), userID, productID, req.Quantity)
	h.respond(c, view, err)
}

// RemoveItem godoc
// @Summary      Remove a cart line
// @Tags         cart
// @Produce      json
// @Param        product_id path string true "Product ID"
// @Success      200 {object} dto.Response{data=cart.View}
// @Security     BearerAuth
// @Router       /cart/items/{product_id} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "product_id")
	if !ok {
		return
	}
	view, err := h.carts.RemoveItem(c.Request.Context(), userID, productID)
	h.respond(c, view, err)
}

// Clear godoc
// @Summary      Empty the cart
// @Tags         cart
// @Success      204
// @Security     BearerAuth
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ApplyVoucher godoc
// @Summary      Apply a voucher code to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cart.ApplyVoucherRequest true "Voucher code"
// @Success      200 {object} dto.Response{data=cart.View}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/voucher [post]
func (h *CartHandler) ApplyVoucher(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req cart.ApplyVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}
	view, err := h.carts.ApplyVoucher(c.Request.Context(), userID, req.Code)
	h.respond(c, view, err)
}

// RemoveVoucher godoc
// @Summary      Remove the voucher from the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=cart.View}
// @Security     BearerAuth
// @Router       /cart/voucher [delete]
func (h *CartHandler) RemoveVoucher(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	view, err := h.carts.RemoveVoucher(c.Request.Context(), userID)
	h.respond(c, view, err)
}

// SetPostcode godoc
// @Summary      Set the delivery postcode used for fee estimation
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body cart.SetPostcodeRequest true "Postcode"
// @Success      200 {object} dto.Response{data=cart.View}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/postcode [put]
func (h *CartHandler) SetPostcode(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req cart.SetPostcodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	view, err := h.carts.SetPostcode(c.Request.Context(), userID, req.Postcode)
	h.respond(c, view, err)
}
