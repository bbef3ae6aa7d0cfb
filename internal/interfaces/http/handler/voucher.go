package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/interfaces/http/middleware"
)

// VoucherService is the part of promotion.VoucherService the handler uses
type VoucherService interface {
	Create(ctx context.Context, req promotion.VoucherRequest) (*promotion.VoucherResponse, error)
	Update(ctx context.Context, id uuid.UUID, req promotion.VoucherRequest) (*promotion.VoucherResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*promotion.VoucherResponse, error)
	List(ctx context.Context, f promotion.VoucherFilter) (shared.Paginated[promotion.VoucherResponse], error)
	Activate(ctx context.Context, id uuid.UUID) (*promotion.VoucherResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*promotion.VoucherResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Usages(ctx context.Context, id uuid.UUID, page, pageSize int) (shared.Paginated[promotion.UsageResponse], error)
	Check(ctx context.Context, req promotion.ValidateVoucherRequest, userID uuid.UUID) (*promotion.ValidateVoucherResponse, error)
}

// VoucherHandler handles voucher endpoints
type VoucherHandler struct {
	BaseHandler
	vouchers VoucherService
}

// NewVoucherHandler creates a new voucher handler
func NewVoucherHandler(vouchers VoucherService) *VoucherHandler {
	return &VoucherHandler{vouchers: vouchers}
}

// Validate godoc
// @Summary      Check a voucher code
// @Description  Returns the discount the code would give on the subtotal. Per-user limits apply when a token is sent.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Param        request body promotion.ValidateVoucherRequest true "Code and subtotal"
// @Success      200 {object} dto.Response{data=promotion.ValidateVoucherResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /vouchers/validate [post]
func (h *VoucherHandler) Validate(c *gin.Context) {
	var req promotion.ValidateVoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}
	userID, _ := middleware.GetJWTUserID(c)
	result, err := h.vouchers.Check(c.Request.Context(), req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @Summary      List vouchers
// @Tags         admin-vouchers
// @Produce      json
// @Param        search query string false "Code filter"
// @Param        active query bool false "Active flag"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]promotion.VoucherResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/vouchers [get]
func (h *VoucherHandler) List(c *gin.Context) {
	var f promotion.VoucherFilter
	if !h.BindQuery(c, &f) {
		return
	}
	result, err := h.vouchers.List(c.Request.Context(), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, result)
}

// Get godoc
// @Summary      Get voucher
// @Tags         admin-vouchers
// @Produce      json
// @Param        id path string true "Voucher ID"
// @Success      200 {object} dto.Response{data=promotion.VoucherResponse}
// @Security     BearerAuth
// @Router       /admin/vouchers/{id} [get]
func (h *VoucherHandler) Get(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	voucher, err := h.vouchers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Create godoc
// @Summary      Create voucher
// @Tags         admin-vouchers
// @Accept       json
// @Produce      json
// @Param        request body promotion.VoucherRequest true "Voucher"
// @Success      201 {object} dto.Response{data=promotion.VoucherResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/vouchers [post]
func (h *VoucherHandler) Create(c *gin.Context) {
	var req promotion.VoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}
	voucher, err := h.vouchers.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, voucher)
}

// Update godoc
// @Summary      Update voucher
// @Tags         admin-vouchers
// @Accept       json
// @Produce      json
// @Param        id path string true "Voucher ID"
// @Param        request body promotion.VoucherRequest true "Voucher"
// @Success      200 {object} dto.Response{data=promotion.VoucherResponse}
// @Security     BearerAuth
// @Router       /admin/vouchers/{id} [put]
func (h *VoucherHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req promotion.VoucherRequest
	if !h.BindJSON(c, &req) {
		return
	}
	voucher, err := h.vouchers.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Activate godoc
// @Summary      Activate voucher
// @Tags         admin-vouchers
// @Produce      json
// @Param        id path string true "Voucher ID"
// @Success      200 {object} dto.Response{data=promotion.VoucherResponse}
// @Security     BearerAuth
// @Router       /admin/vouchers/{id}/activate [post]
func (h *VoucherHandler) Activate(c *gin.Context) {
	h.toggle(c, h.vouchers.Activate)
}

// Deactivate godoc
// @Summary      Deactivate voucher
// @Tags         admin-vouchers
// @Produce      json
// @Param        id path string true "Voucher ID"
// @Success      200 {object} dto.Response{data=promotion.VoucherResponse}
// @Security     BearerAuth
// @Router       /admin/vouchers/{id}/deactivate [post]
func (h *VoucherHandler) Deactivate(c *gin.Context) {
	h.toggle(c, h.vouchers.Deactivate)
}

func (h *VoucherHandler) toggle(c *gin.Context, fn func(context.Context, uuid.UUID) (*promotion.VoucherResponse, error)) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	voucher, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, voucher)
}

// Delete godoc
// @Summary      Delete voucher
// @Description  Used vouchers cannot be deleted, only deactivated
// @Tags         admin-vouchers
// @Param        id path string true "Voucher ID"
// @Success      204
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/vouchers/{id} [delete]
func (h *VoucherHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.vouchers.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Usages godoc
// @Summary      Voucher redemptions
// @Tags         admin-vouchers
// @Produce      json
// @Param        id path string true "Voucher ID"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]promotion.UsageResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/vouchers/{id}/usages [get]
func (h *VoucherHandler) Usages(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	page, pageSize := pageParams(c)
	result, err := h.vouchers.Usages(c.Request.Context(), id, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, result)
}
