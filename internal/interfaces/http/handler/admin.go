package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/analytics"
	"github.com/grocer/backend/internal/application/event"
	"github.com/grocer/backend/internal/domain/shared"
)

// DashboardService is the part of analytics.DashboardService the handler uses
type DashboardService interface {
	Dashboard(ctx context.Context, q analytics.DashboardQuery) (*analytics.Dashboard, error)
}

// OutboxService is the part of event.OutboxService the handler uses
type OutboxService interface {
	ListDead(ctx context.Context, filter event.OutboxFilter) (shared.Paginated[event.OutboxEntryDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*event.OutboxEntryDTO, error)
	Retry(ctx context.Context, id uuid.UUID) (*event.OutboxEntryDTO, error)
	RetryAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*event.OutboxStatsDTO, error)
}

// RetryAllResponse reports how many dead letters were requeued
type RetryAllResponse struct {
	Requeued int64 `json:"requeued"`
}

// AdminHandler serves the dashboard and outbox operations
type AdminHandler struct {
	BaseHandler
	dashboard DashboardService
	outbox    OutboxService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(dashboard DashboardService, outbox OutboxService) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, outbox: outbox}
}

// Dashboard godoc
// @Summary      Sales dashboard
// @Description  Revenue, order counts, top products, voucher redemptions and low stock for a period. Defaults to the last 30 days.
// @Tags         admin-analytics
// @Produce      json
// @Param        from query string false "First day (YYYY-MM-DD)"
// @Param        to query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=analytics.Dashboard}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/analytics/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var q analytics.DashboardQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.dashboard.Dashboard(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListDeadLetters godoc
// @Summary      Dead-lettered outbox events
// @Tags         admin-outbox
// @Produce      json
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]event.OutboxEntryDTO,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/outbox/dead [get]
func (h *AdminHandler) ListDeadLetters(c *gin.Context) {
	var filter event.OutboxFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	result, err := h.outbox.ListDead(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, result)
}

// GetOutboxEntry godoc
// @Summary      Outbox entry with payload
// @Tags         admin-outbox
// @Produce      json
// @Param        id path string true "Entry ID"
// @Success      200 {object} dto.Response{data=event.OutboxEntryDTO}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/{id} [get]
func (h *AdminHandler) GetOutboxEntry(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.outbox.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryOutboxEntry godoc
// @Summary      Requeue a dead letter
// @Tags         admin-outbox
// @Produce      json
// @Param        id path string true "Entry ID"
// @Success      200 {object} dto.Response{data=event.OutboxEntryDTO}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/outbox/{id}/retry [post]
func (h *AdminHandler) RetryOutboxEntry(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.outbox.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// RetryAllDeadLetters godoc
// @Summary      Requeue every dead letter
// @Tags         admin-outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=RetryAllResponse}
// @Security     BearerAuth
// @Router       /admin/outbox/dead/retry [post]
func (h *AdminHandler) RetryAllDeadLetters(c *gin.Context) {
	n, err := h.outbox.RetryAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RetryAllResponse{Requeued: n})
}

// OutboxStats godoc
// @Summary      Outbox entries per status
// @Tags         admin-outbox
// @Produce      json
// @Success      200 {object} dto.Response{data=event.OutboxStatsDTO}
// @Security     BearerAuth
// @Router       /admin/outbox/stats [get]
func (h *AdminHandler) OutboxStats(c *gin.Context) {
	stats, err := h.outbox.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
