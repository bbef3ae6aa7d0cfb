package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/application/catalog"
	"github.com/grocer/backend/internal/domain/shared"
)

// SearchService is the part of catalog.SearchService the handler uses
type SearchService interface {
	Search(ctx context.Context, filter catalog.ProductFilter) (shared.Paginated[catalog.ProductResponse], error)
	Suggest(ctx context.Context, query string, limit int) ([]string, error)
}

// SearchHandler handles product search
type SearchHandler struct {
	BaseHandler
	search SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(search SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search godoc
// @Summary      Search products
// @Tags         search
// @Produce      json
// @Param        q query string true "Search text"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]catalog.ProductResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	var filter catalog.ProductFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	result, err := h.search.Search(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, result)
}

// Suggest godoc
// @Summary      Product name suggestions
// @Tags         search
// @Produce      json
// @Param        q query string true "Prefix"
// @Param        limit query int false "Maximum suggestions"
// @Success      200 {object} dto.Response{data=[]string}
// @Router       /search/suggestions [get]
func (h *SearchHandler) Suggest(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	names, err := h.search.Suggest(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	h.Success(c, names)
}
