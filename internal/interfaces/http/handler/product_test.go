package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/catalog"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProductHandler_ListStorefront(t *testing.T) {
	svc := new(mockProductService)
	h := NewProductHandler(svc)
	r := newTestRouter()
	r.GET("/products", h.List)

	items := []catalog.ProductResponse{{ID: uuid.New(), Name: "Bananas"}}
	svc.On("List", mock.Anything, mock.MatchedBy(func(f catalog.ProductFilter) bool {
		return f.Search == "ban" && f.Page == 2 && f.InStock
	}), true).Return(shared.NewPaginated(items, 21, 2, 20), nil)

	w := doRequest(t, r, http.MethodGet, "/products?q=ban&page=2&in_stock=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(21), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)
	svc.AssertExpectations(t)
}

func TestProductHandler_ListRejectsBadFilter(t *testing.T) {
	svc := new(mockProductService)
	h := NewProductHandler(svc)
	r := newTestRouter()
	r.GET("/products", h.List)

	w := doRequest(t, r, http.MethodGet, "/products?order_by=password", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_GetHidesInactiveOnStorefront(t *testing.T) {
	svc := new(mockProductService)
	h := NewProductHandler(svc)
	r := newTestRouter()
	r.GET("/products/:id", h.Get)
	r.GET("/admin/products/:id", h.AdminGet)

	id := uuid.New()
	svc.On("GetByID", mock.Anything, id, true).Return(nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found"))
	svc.On("GetByID", mock.Anything, id, false).Return(&catalog.ProductResponse{ID: id, Status: "inactive"}, nil)

	w := doRequest(t, r, http.MethodGet, "/products/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodGet, "/admin/products/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductHandler_Create(t *testing.T) {
	svc := new(mockProductService)
	h := NewProductHandler(svc)
	r := newTestRouter()
	r.POST("/admin/products", h.Create)

	categoryID := uuid.New()
	body := map[string]any{
		"sku":         "BAN-1",
		"name":        "Bananas",
		"category_id": categoryID,
		"price":       "1.29",
		"unit":        "kg",
		"stock":       40,
	}
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req catalog.CreateProductRequest) bool {
		return req.SKU == "BAN-1" && req.Price.Equal(decimal.RequireFromString("1.29")) && req.CategoryID == categoryID
	})).Return(&catalog.ProductResponse{ID: uuid.New(), SKU: "BAN-1"}, nil)

	w := doRequest(t, r, http.MethodPost, "/admin/products", body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestProductHandler_CreateRejectsUnknownUnit(t *testing.T) {
	svc := new(mockProductService)
	h := NewProductHandler(svc)
	r := newTestRouter()
	r.POST("/admin/products", h.Create)

	w := doRequest(t, r, http.MethodPost, "/admin/products", map[string]any{
		"sku": "X", "name": "X", "category_id": uuid.New(), "price": "1", "unit": "crate",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_AdjustStock(t *testing.T) {
	svc := new(mockProductService)
	h := NewProductHandler(svc)
	r := newTestRouter()
	r.POST("/admin/products/:id/stock", h.AdjustStock)

	id := uuid.New()
	req := catalog.AdjustStockRequest{Delta: -50, Reason: "spoiled"}
	svc.On("AdjustStock", mock.Anything, id, req).Return(nil, shared.NewDomainError("INSUFFICIENT_STOCK", "Stock cannot go below zero"))

	w := doRequest(t, r, http.MethodPost, "/admin/products/"+id.String()+"/stock", req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode(t, w).Error.Code)
}

func TestProductHandler_Delete(t *testing.T) {
	svc := new(mockProductService)
	h := NewProductHandler(svc)
	r := newTestRouter()
	r.DELETE("/admin/products/:id", h.Delete)

	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	w := doRequest(t, r, http.MethodDelete, "/admin/products/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
