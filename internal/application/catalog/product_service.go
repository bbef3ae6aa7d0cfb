// Package catalog contains the product and category use cases, storefront
// search and the low stock alert handler.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrSKUExists       = shared.NewDomainError("ALREADY_EXISTS", "A product with this SKU already exists")
	ErrInvalidCategory = shared.NewDomainError("INVALID_CATEGORY", "Category not found")
)

// ProductService handles product-related business operations
type ProductService struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	txm        shared.TransactionManager
	events     shared.OutboxEventSaver
	logger     *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
	txm shared.TransactionManager,
	events shared.OutboxEventSaver,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		txm:        txm,
		events:     events,
		logger:     logger,
	}
}

// Create adds a product to the catalog
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	exists, err := s.products.ExistsBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSKUExists
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(sku, req.Name, req.CategoryID, req.Price, catalog.ProductUnit(req.Unit))
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.CompareAtPrice != nil {
		if err := product.SetPrice(req.Price, req.CompareAtPrice); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if len(req.ImageURLs) > 0 {
		if err := product.SetImages(req.ImageURLs); err != nil {
			return nil, err
		}
	}
	if req.Featured {
		product.SetFeatured(true)
	}
	if req.Stock > 0 {
		if err := product.AdjustStock(req.Stock, "initial stock"); err != nil {
			return nil, err
		}
	}

	slug := req.Slug
	if slug == "" {
		slug = product.Name
	}
	if err := s.assignSlug(ctx, product, slug); err != nil {
		return nil, err
	}

	if err := s.persist(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.String("product_id", product.ID.String()), zap.String("sku", product.SKU))

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID returns a product. Storefront callers only see active products.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID, storefront bool) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if storefront && !product.IsActive() {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetBySlug returns an active product by its storefront slug
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*ProductResponse, error) {
	product, err := s.products.FindBySlug(ctx, catalog.Slugify(slug))
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, shared.ErrNotFound
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns a page of products. Storefront listings are restricted to
// active products regardless of the requested status.
func (s *ProductService) List(ctx context.Context, filter ProductFilter, storefront bool) (shared.Paginated[ProductResponse], error) {
	domainFilter, err := toDomainFilter(filter, storefront)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}

	products, err := s.products.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	total, err := s.products.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products), total, domainFilter.Page, domainFilter.PageSize), nil
}

// Update applies a partial update
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name, description := product.Name, product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}
	if req.Slug != nil && catalog.Slugify(*req.Slug) != product.Slug {
		if err := s.assignSlug(ctx, product, *req.Slug); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil && *req.CategoryID != product.CategoryID {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		if err := product.SetCategory(*req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.Price != nil || req.CompareAtPrice != nil || req.ClearCompareAt {
		price := product.Price
		if req.Price != nil {
			price = *req.Price
		}
		compareAt := product.CompareAtPrice
		if req.CompareAtPrice != nil {
			compareAt = req.CompareAtPrice
		}
		if req.ClearCompareAt {
			compareAt = nil
		}
		if err := product.SetPrice(price, compareAt); err != nil {
			return nil, err
		}
	}
	if req.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*req.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if req.ImageURLs != nil {
		if err := product.SetImages(*req.ImageURLs); err != nil {
			return nil, err
		}
	}
	if req.Featured != nil && *req.Featured != product.Featured {
		product.SetFeatured(*req.Featured)
	}

	if err := s.persist(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// AdjustStock applies a restock or correction. Stock never goes below zero.
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.AdjustStock(req.Delta, strings.TrimSpace(req.Reason)); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int("delta", req.Delta),
		zap.Int("stock", product.Stock),
		zap.String("reason", req.Reason),
	)
	resp := ToProductResponse(product)
	return &resp, nil
}

// Activate shows a product on the storefront
func (s *ProductService) Activate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Product).Activate)
}

// Deactivate hides a product from the storefront
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Product).Deactivate)
}

func (s *ProductService) changeStatus(ctx context.Context, id uuid.UUID, apply func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(product); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product. Past orders keep their item snapshots.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

// LowStock lists active products at or below their alert threshold
func (s *ProductService) LowStock(ctx context.Context, limit int) ([]ProductResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	products, err := s.products.FindLowStock(ctx, limit)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

func (s *ProductService) checkCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidCategory
		}
		return err
	}
	return nil
}

// assignSlug sets a slug, suffixing the SKU when the plain slug is taken
func (s *ProductService) assignSlug(ctx context.Context, product *catalog.Product, slug string) error {
	if err := product.SetSlug(slug); err != nil {
		return err
	}
	taken, err := s.products.ExistsBySlug(ctx, product.Slug)
	if err != nil {
		return err
	}
	if !taken {
		return nil
	}
	if err := product.SetSlug(product.Slug + "-" + product.SKU); err != nil {
		return err
	}
	taken, err = s.products.ExistsBySlug(ctx, product.Slug)
	if err != nil {
		return err
	}
	if taken {
		return shared.NewDomainError("ALREADY_EXISTS", "A product with this slug already exists")
	}
	return nil
}

// persist saves the product and its pending events in one transaction
func (s *ProductService) persist(ctx context.Context, product *catalog.Product) error {
	err := s.txm.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.products.Save(ctx, product); err != nil {
			return err
		}
		if events := product.GetDomainEvents(); len(events) > 0 {
			return s.events.SaveEvents(ctx, events...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	product.ClearDomainEvents()
	return nil
}

func toDomainFilter(f ProductFilter, storefront bool) (shared.Filter, error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = strings.TrimSpace(f.Search)

	if storefront {
		filter.Filters[catalog.FilterStatus] = string(catalog.ProductStatusActive)
	} else if f.Status != "" {
		filter.Filters[catalog.FilterStatus] = f.Status
	}
	if f.CategoryID != "" {
		id, err := uuid.Parse(f.CategoryID)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "category_id must be a UUID")
		}
		filter.Filters[catalog.FilterCategoryID] = id
	}
	if f.Featured != nil {
		filter.Filters[catalog.FilterFeatured] = *f.Featured
	}
	if f.MinPrice != "" {
		d, err := decimal.NewFromString(f.MinPrice)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "min_price must be a number")
		}
		filter.Filters[catalog.FilterMinPrice] = d
	}
	if f.MaxPrice != "" {
		d, err := decimal.NewFromString(f.MaxPrice)
		if err != nil {
			return filter, shared.NewDomainError("INVALID_INPUT", "max_price must be a number")
		}
		filter.Filters[catalog.FilterMaxPrice] = d
	}
	if f.InStock {
		filter.Filters[catalog.FilterInStock] = true
	}
	return filter, nil
}
