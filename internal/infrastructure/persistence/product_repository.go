package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindBySlug finds a product by its slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := conn(ctx, r.db).Where("slug = ?", slug).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds products by IDs; missing IDs are skipped
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// FindAll lists products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	var rows []models.ProductModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.ProductModel{}), filter)
	query = productSort.apply(query, filter)
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.ProductModel{}), filter).Count(&count).Error
	return count, err
}

// SuggestNames returns active product names containing query, prefix matches first
func (r *GormProductRepository) SuggestNames(ctx context.Context, query string, limit int) ([]string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return []string{}, nil
	}
	var names []string
	err := conn(ctx, r.db).Model(&models.ProductModel{}).
		Where("status = ? AND LOWER(name) LIKE ? ESCAPE '\\'", catalog.ProductStatusActive, likePattern(q)).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN LOWER(name) LIKE ? ESCAPE '\\' THEN 0 ELSE 1 END, name ASC",
			Vars:               []any{prefixPattern(q)},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Pluck("name", &names).Error
	return names, err
}

// FindLowStock returns active products at or below their alert threshold
func (r *GormProductRepository) FindLowStock(ctx context.Context, limit int) ([]catalog.Product, error) {
	var rows []models.ProductModel
	query := conn(ctx, r.db).
		Where("status = ? AND stock <= low_stock_threshold", catalog.ProductStatusActive).
		Order("stock ASC").Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toProducts(rows), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return saveAggregate(conn(ctx, r.db), models.ProductModelFromDomain(product), &product.BaseAggregateRoot)
}

// Delete deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsBySKU checks if a product with the given SKU exists
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).Where("sku = ?", sku).Count(&count).Error
	return count > 0, err
}

// ExistsBySlug checks if a product with the given slug exists
func (r *GormProductRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// CountByCategory counts products in a category
func (r *GormProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.ProductModel{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

// DeductStock removes quantity units with a single conditional UPDATE so
// concurrent checkouts can never drive stock below zero.
func (r *GormProductRepository) DeductStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	db := conn(ctx, r.db)
	result := db.Model(&models.ProductModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.stockFailure(db, id)
	}
	return nil
}

// RestoreStock adds quantity units back
func (r *GormProductRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	result := conn(ctx, r.db).Model(&models.ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProductRepository) stockFailure(db *gorm.DB, id uuid.UUID) error {
	var model models.ProductModel
	if err := db.Select("id", "name", "stock").First(&model, "id = ?", id).Error; err != nil {
		return translate(err)
	}
	return shared.NewDomainErrorf("INSUFFICIENT_STOCK", "Only %d of %s left in stock", model.Stock, model.Name)
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\' OR LOWER(sku) LIKE ? ESCAPE '\\')", p, p, p)
	}
	for key, value := range filter.Filters {
		switch key {
		case catalog.FilterCategoryID:
			switch v := value.(type) {
			case uuid.UUID:
				query = query.Where("category_id = ?", v)
			case string:
				if id, err := uuid.Parse(v); err == nil {
					query = query.Where("category_id = ?", id)
				}
			}
		case catalog.FilterStatus:
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("status = ?", s)
			}
		case catalog.FilterFeatured:
			if b, ok := value.(bool); ok {
				query = query.Where("featured = ?", b)
			}
		case catalog.FilterMinPrice:
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("price >= ?", d)
			}
		case catalog.FilterMaxPrice:
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("price <= ?", d)
			}
		case catalog.FilterInStock:
			if b, ok := value.(bool); ok && b {
				query = query.Where("stock > 0")
			}
		}
	}
	return query
}

func toProducts(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
