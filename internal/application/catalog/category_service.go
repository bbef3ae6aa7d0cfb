package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	ErrSlugExists    = shared.NewDomainError("ALREADY_EXISTS", "A category with this slug already exists")
	ErrCategoryInUse = shared.NewDomainError("CATEGORY_IN_USE", "Category still has products; move or delete them first")
)

// CategoryService handles category management
type CategoryService struct {
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	logger     *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categories catalog.CategoryRepository, products catalog.ProductRepository, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, products: products, logger: logger}
}

// Create adds a category
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	category, err := catalog.NewCategory(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, category.Slug); err != nil {
		return nil, err
	}
	if req.Description != "" || req.ImageURL != "" || req.SortOrder != 0 {
		if err := category.Update(category.Name, req.Description, req.ImageURL, req.SortOrder); err != nil {
			return nil, err
		}
	}
	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("category created", zap.String("category_id", category.ID.String()), zap.String("slug", category.Slug))

	resp := ToCategoryResponse(category)
	return &resp, nil
}

// GetByID returns a category with its product count. Storefront callers
// only see active categories.
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID, storefront bool) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if storefront && !category.IsActive() {
		return nil, shared.ErrNotFound
	}
	resp := ToCategoryResponse(category)
	count, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	resp.ProductCount = &count
	return &resp, nil
}

// List returns categories in display order. Storefront listings only
// include active categories.
func (s *CategoryService) List(ctx context.Context, page, pageSize int, search string, storefront bool) (shared.Paginated[CategoryResponse], error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = ""
	filter.OrderDir = ""
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = min(pageSize, 100)
	}
	filter.Search = search
	if storefront {
		filter.Filters["status"] = string(catalog.CategoryStatusActive)
	}

	categories, err := s.categories.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[CategoryResponse]{}, err
	}
	total, err := s.categories.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[CategoryResponse]{}, err
	}

	items := make([]CategoryResponse, len(categories))
	for i := range categories {
		items[i] = ToCategoryResponse(&categories[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update applies a partial update
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, description, imageURL, sortOrder := category.Name, category.Description, category.ImageURL, category.SortOrder
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.ImageURL != nil {
		imageURL = *req.ImageURL
	}
	if req.SortOrder != nil {
		sortOrder = *req.SortOrder
	}
	if err := category.Update(name, description, imageURL, sortOrder); err != nil {
		return nil, err
	}

	if req.Slug != nil && catalog.Slugify(*req.Slug) != category.Slug {
		if err := s.ensureSlugFree(ctx, catalog.Slugify(*req.Slug)); err != nil {
			return nil, err
		}
		if err := category.SetSlug(*req.Slug); err != nil {
			return nil, err
		}
	}
	if req.Active != nil && *req.Active != category.IsActive() {
		if *req.Active {
			err = category.Activate()
		} else {
			err = category.Deactivate()
		}
		if err != nil {
			return nil, err
		}
	}

	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	resp := ToCategoryResponse(category)
	return &resp, nil
}

// Delete removes an empty category
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return err
	}
	count, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug string) error {
	exists, err := s.categories.ExistsBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if exists {
		return ErrSlugExists
	}
	return nil
}
