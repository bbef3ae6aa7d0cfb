package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
)

// Filter keys understood by ProductRepository.FindAll and Count
const (
	FilterCategoryID = "category_id"
	FilterStatus     = "status"
	FilterFeatured   = "featured"
	FilterMinPrice   = "min_price"
	FilterMaxPrice   = "max_price"
	FilterInStock    = "in_stock"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll lists products; filter.Search matches name, description and SKU
	// case-insensitively
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// SuggestNames returns up to limit active product names containing query,
	// names starting with query first
	SuggestNames(ctx context.Context, query string, limit int) ([]string, error)

	// FindLowStock returns active products at or below their alert threshold
	FindLowStock(ctx context.Context, limit int) ([]Product, error)

	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// DeductStock atomically removes quantity units. It fails with
	// INSUFFICIENT_STOCK without modifying anything when fewer are available.
	DeductStock(ctx context.Context, id uuid.UUID, quantity int) error
	// RestoreStock atomically adds quantity units back
	RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error
}
