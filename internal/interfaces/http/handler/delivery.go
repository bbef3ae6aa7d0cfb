package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/delivery"
	"github.com/grocer/backend/internal/domain/shared"
)

// ZoneService is the part of delivery.ZoneService the handler uses
type ZoneService interface {
	Create(ctx context.Context, req delivery.ZoneRequest) (*delivery.ZoneResponse, error)
	Update(ctx context.Context, id uuid.UUID, req delivery.ZoneRequest) (*delivery.ZoneResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*delivery.ZoneResponse, error)
	List(ctx context.Context, page, pageSize int, storefront bool) (shared.Paginated[delivery.ZoneResponse], error)
	Delete(ctx context.Context, id uuid.UUID) error
	Lookup(ctx context.Context, postcode string) (*delivery.LookupResponse, error)
}

// SlotService is the part of delivery.SlotService the handler uses
type SlotService interface {
	List(ctx context.Context, q delivery.SlotQuery, storefront bool) ([]delivery.SlotResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*delivery.SlotResponse, error)
	Create(ctx context.Context, req delivery.SlotRequest) (*delivery.SlotResponse, error)
	Update(ctx context.Context, id uuid.UUID, req delivery.SlotRequest) (*delivery.SlotResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Generate(ctx context.Context, req delivery.GenerateSlotsRequest) ([]delivery.SlotResponse, error)
}

// DeliveryHandler handles delivery zone and slot endpoints
type DeliveryHandler struct {
	BaseHandler
	zones ZoneService
	slots SlotService
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(zones ZoneService, slots SlotService) *DeliveryHandler {
	return &DeliveryHandler{zones: zones, slots: slots}
}

// ListZones godoc
// @Summary      List delivery zones
// @Tags         delivery
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]delivery.ZoneResponse,meta=dto.Meta}
// @Router       /delivery-zones [get]
func (h *DeliveryHandler) ListZones(c *gin.Context) {
	h.listZones(c, true)
}

// AdminListZones godoc
// @Summary      List delivery zones (admin)
// @Tags         admin-delivery
// @Produce      json
// @Success      200 {object} dto.Response{data=[]delivery.ZoneResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/delivery-zones [get]
func (h *DeliveryHandler) AdminListZones(c *gin.Context) {
	h.listZones(c, false)
}

func (h *DeliveryHandler) listZones(c *gin.Context, storefront bool) {
	page, pageSize := pageParams(c)
	result, err := h.zones.List(c.Request.Context(), page, pageSize, storefront)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, result)
}

// LookupZone godoc
// @Summary      Find the zone serving a postcode
// @Tags         delivery
// @Produce      json
// @Param        postcode query string true "Postcode"
// @Success      200 {object} dto.Response{data=delivery.LookupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /delivery-zones/lookup [get]
func (h *DeliveryHandler) LookupZone(c *gin.Context) {
	result, err := h.zones.Lookup(c.Request.Context(), c.Query("postcode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetZone godoc
// @Summary      Get delivery zone
// @Tags         admin-delivery
// @Produce      json
// @Param        id path string true "Zone ID"
// @Success      200 {object} dto.Response{data=delivery.ZoneResponse}
// @Security     BearerAuth
// @Router       /admin/delivery-zones/{id} [get]
func (h *DeliveryHandler) GetZone(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	zone, err := h.zones.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, zone)
}

// CreateZone godoc
// @Summary      Create delivery zone
// @Tags         admin-delivery
// @Accept       json
// @Produce      json
// @Param        request body delivery.ZoneRequest true "Zone"
// @Success      201 {object} dto.Response{data=delivery.ZoneResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/delivery-zones [post]
func (h *DeliveryHandler) CreateZone(c *gin.Context) {
	var req delivery.ZoneRequest
	if !h.BindJSON(c, &req) {
		return
	}
	zone, err := h.zones.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, zone)
}

// UpdateZone godoc
// @Summary      Update delivery zone
// @Tags         admin-delivery
// @Accept       json
// @Produce      json
// @Param        id path string true "Zone ID"
// @Param        request body delivery.ZoneRequest true "Zone"
// @Success      200 {object} dto.Response{data=delivery.ZoneResponse}
// @Security     BearerAuth
// @Router       /admin/delivery-zones/{id} [put]
func (h *DeliveryHandler) UpdateZone(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req delivery.ZoneRequest
	if !h.BindJSON(c, &req) {
		return
	}
	zone, err := h.zones.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, zone)
}

// DeleteZone godoc
// @Summary      Delete delivery zone
// @Tags         admin-delivery
// @Param        id path string true "Zone ID"
// @Success      204
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/delivery-zones/{id} [delete]
func (h *DeliveryHandler) DeleteZone(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.zones.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListSlots godoc
// @Summary      List delivery slots
// @Description  Storefront listing shows active future slots with remaining capacity
// @Tags         delivery
// @Produce      json
// @Param        zone_id query string false "Zone ID"
// @Param        from query string false "First day (YYYY-MM-DD)"
// @Param        to query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]delivery.SlotResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /delivery-slots [get]
func (h *DeliveryHandler) ListSlots(c *gin.Context) {
	h.listSlots(c, true)
}

// AdminListSlots godoc
// @Summary      List delivery slots (admin)
// @Tags         admin-delivery
// @Produce      json
// @Param        zone_id query string false "Zone ID"
// @Param        available query bool false "Only slots with free capacity"
// @Success      200 {object} dto.Response{data=[]delivery.SlotResponse}
// @Security     BearerAuth
// @Router       /admin/delivery-slots [get]
func (h *DeliveryHandler) AdminListSlots(c *gin.Context) {
	h.listSlots(c, false)
}

func (h *DeliveryHandler) listSlots(c *gin.Context, storefront bool) {
	var q delivery.SlotQuery
	if !h.BindQuery(c, &q) {
		return
	}
	slots, err := h.slots.List(c.Request.Context(), q, storefront)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if slots == nil {
		slots = []delivery.SlotResponse{}
	}
	h.Success(c, slots)
}

// GetSlot godoc
// @Summary      Get delivery slot
// @Tags         admin-delivery
// @Produce      json
// @Param        id path string true "Slot ID"
// @Success      200 {object} dto.Response{data=delivery.SlotResponse}
// @Security     BearerAuth
// @Router       /admin/delivery-slots/{id} [get]
func (h *DeliveryHandler) GetSlot(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	slot, err := h.slots.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, slot)
}

// CreateSlot godoc
// @Summary      Create delivery slot
// @Tags         admin-delivery
// @Accept       json
// @Produce      json
// @Param        request body delivery.SlotRequest true "Slot"
// @Success      201 {object} dto.Response{data=delivery.SlotResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/delivery-slots [post]
func (h *DeliveryHandler) CreateSlot(c *gin.Context) {
	var req delivery.SlotRequest
	if !h.BindJSON(c, &req) {
		return
	}
	slot, err := h.slots.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, slot)
}

// UpdateSlot godoc
// @Summary      Update delivery slot
// @Description  Capacity cannot drop below the number of booked orders
// @Tags         admin-delivery
// @Accept       json
// @Produce      json
// @Param        id path string true "Slot ID"
// @Param        request body delivery.SlotRequest true "Slot"
// @Success      200 {object} dto.Response{data=delivery.SlotResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/delivery-slots/{id} [put]
func (h *DeliveryHandler) UpdateSlot(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req delivery.SlotRequest
	if !h.BindJSON(c, &req) {
		return
	}
	slot, err := h.slots.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, slot)
}

// DeleteSlot godoc
// @Summary      Delete delivery slot
// @Tags         admin-delivery
// @Param        id path string true "Slot ID"
// @Success      204
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/delivery-slots/{id} [delete]
func (h *DeliveryHandler) DeleteSlot(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.slots.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GenerateSlots godoc
// @Summary      Generate slots for a date range
// @Description  Creates one slot per window per day, skipping slots that already exist
// @Tags         admin-delivery
// @Accept       json
// @Produce      json
// @Param        request body delivery.GenerateSlotsRequest true "Range and windows"
// @Success      201 {object} dto.Response{data=[]delivery.SlotResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/delivery-slots/generate [post]
func (h *DeliveryHandler) GenerateSlots(c *gin.Context) {
	var req delivery.GenerateSlotsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	slots, err := h.slots.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if slots == nil {
		slots = []delivery.SlotResponse{}
	}
	h.Created(c, slots)
}
