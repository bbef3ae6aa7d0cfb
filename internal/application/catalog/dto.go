package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU               string           `json:"sku" binding:"required,min=1,max=50"`
	Name              string           `json:"name" binding:"required,min=1,max=200"`
	Slug              string           `json:"slug" binding:"omitempty,max=200"`
	Description       string           `json:"description" binding:"max=5000"`
	CategoryID        uuid.UUID        `json:"category_id" binding:"required"`
	Price             decimal.Decimal  `json:"price" binding:"required"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price"`
	Unit              string           `json:"unit" binding:"required,oneof=each kg g l ml pack"`
	Stock             int              `json:"stock" binding:"min=0"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	ImageURLs         []string         `json:"image_urls" binding:"omitempty,max=10,dive,url"`
	Featured          bool             `json:"featured"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Slug              *string          `json:"slug" binding:"omitempty,min=1,max=200"`
	Description       *string          `json:"description" binding:"omitempty,max=5000"`
	CategoryID        *uuid.UUID       `json:"category_id"`
	Price             *decimal.Decimal `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price"`
	ClearCompareAt    bool             `json:"clear_compare_at_price"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,min=0"`
	ImageURLs         *[]string        `json:"image_urls" binding:"omitempty,max=10,dive,url"`
	Featured          *bool            `json:"featured"`
}

// AdjustStockRequest applies a signed stock correction
type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required,min=1,max=200"`
}

// ProductFilter holds list and search query parameters
type ProductFilter struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search     string `form:"q" binding:"omitempty,max=100"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=active inactive"`
	Featured   *bool  `form:"featured"`
	MinPrice   string `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice   string `form:"max_price" binding:"omitempty,numeric"`
	InStock    bool   `form:"in_stock"`
	OrderBy    string `form:"order_by" binding:"omitempty,oneof=created_at updated_at name price stock sku"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID        `json:"id"`
	SKU               string           `json:"sku"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Description       string           `json:"description"`
	CategoryID        uuid.UUID        `json:"category_id"`
	Price             decimal.Decimal  `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price,omitempty"`
	OnSale            bool             `json:"on_sale"`
	Unit              string           `json:"unit"`
	Stock             int              `json:"stock"`
	InStock           bool             `json:"in_stock"`
	LowStock          bool             `json:"low_stock"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	ImageURLs         []string         `json:"image_urls"`
	Status            string           `json:"status"`
	Featured          bool             `json:"featured"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// ToProductResponse converts a domain product
func ToProductResponse(p *catalog.Product) ProductResponse {
	images := p.ImageURLs
	if images == nil {
		images = []string{}
	}
	return ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Slug:              p.Slug,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		Price:             p.Price,
		CompareAtPrice:    p.CompareAtPrice,
		OnSale:            p.OnSale(),
		Unit:              string(p.Unit),
		Stock:             p.Stock,
		InStock:           p.Stock > 0,
		LowStock:          p.IsLowStock(),
		LowStockThreshold: p.LowStockThreshold,
		ImageURLs:         images,
		Status:            string(p.Status),
		Featured:          p.Featured,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}

// ToProductResponses converts a slice of domain products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Slug        string `json:"slug" binding:"omitempty,max=100"`
	Description string `json:"description" binding:"max=1000"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
	SortOrder   int    `json:"sort_order"`
}

// UpdateCategoryRequest represents a partial category update
type UpdateCategoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	ImageURL    *string `json:"image_url" binding:"omitempty"`
	SortOrder   *int    `json:"sort_order"`
	Active      *bool   `json:"active"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	SortOrder    int       `json:"sort_order"`
	Status       string    `json:"status"`
	ProductCount *int64    `json:"product_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain category
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		SortOrder:   c.SortOrder,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
