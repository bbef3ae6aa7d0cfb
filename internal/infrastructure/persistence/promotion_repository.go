package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVoucherRepository implements promotion.VoucherRepository using GORM
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// FindByID finds a voucher by its ID
func (r *GormVoucherRepository) FindByID(ctx context.Context, id uuid.UUID) (*promotion.Voucher, error) {
	var model models.VoucherModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds a voucher by code, ignoring case
func (r *GormVoucherRepository) FindByCode(ctx context.Context, code string) (*promotion.Voucher, error) {
	var model models.VoucherModel
	if err := conn(ctx, r.db).Where("code = ?", promotion.NormalizeCode(code)).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// LockByCode finds a voucher by code and locks its row for the rest of the
// transaction. Concurrent redemptions of the same voucher queue here.
func (r *GormVoucherRepository) LockByCode(ctx context.Context, code string) (*promotion.Voucher, error) {
	query := conn(ctx, r.db).Where("code = ?", promotion.NormalizeCode(code))
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var model models.VoucherModel
	if err := query.First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists vouchers matching the filter
func (r *GormVoucherRepository) FindAll(ctx context.Context, filter shared.Filter) ([]promotion.Voucher, error) {
	var rows []models.VoucherModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.VoucherModel{}), filter)
	query = voucherSort.apply(query, filter)
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	vouchers := make([]promotion.Voucher, len(rows))
	for i := range rows {
		vouchers[i] = *rows[i].ToDomain()
	}
	return vouchers, nil
}

// Count counts vouchers matching the filter
func (r *GormVoucherRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.VoucherModel{}), filter).Count(&count).Error
	return count, err
}

// Save creates or updates a voucher
func (r *GormVoucherRepository) Save(ctx context.Context, voucher *promotion.Voucher) error {
	return saveAggregate(conn(ctx, r.db), models.VoucherModelFromDomain(voucher), &voucher.BaseAggregateRoot)
}

// Delete deletes a voucher
func (r *GormVoucherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.VoucherModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByCode checks if a voucher with the given code exists
func (r *GormVoucherRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.VoucherModel{}).
		Where("code = ?", promotion.NormalizeCode(code)).Count(&count).Error
	return count > 0, err
}

// IncrementUsage records one redemption with a conditional UPDATE so the
// used count can never pass max_uses
func (r *GormVoucherRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	result := db.Model(&models.VoucherModel{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", id).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.VoucherModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return promotion.ErrVoucherExhausted
}

// DecrementUsage reverses a redemption, never below zero
func (r *GormVoucherRepository) DecrementUsage(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Model(&models.VoucherModel{}).
		Where("id = ? AND used_count > 0", id).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count - 1"),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		}).Error
}

func (r *GormVoucherRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(code) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", p, p)
	}
	if active, ok := filter.Filters["active"].(bool); ok {
		query = query.Where("active = ?", active)
	}
	return query
}

// GormVoucherUsageRepository implements promotion.UsageRepository using GORM
type GormVoucherUsageRepository struct {
	db *gorm.DB
}

// NewGormVoucherUsageRepository creates a new GormVoucherUsageRepository
func NewGormVoucherUsageRepository(db *gorm.DB) *GormVoucherUsageRepository {
	return &GormVoucherUsageRepository{db: db}
}

// Save records a redemption
func (r *GormVoucherUsageRepository) Save(ctx context.Context, usage *promotion.Usage) error {
	return translate(conn(ctx, r.db).Create(models.VoucherUsageModelFromDomain(usage)).Error)
}

// CountByVoucherAndUser counts how often a customer used a voucher
func (r *GormVoucherUsageRepository) CountByVoucherAndUser(ctx context.Context, voucherID, userID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.VoucherUsageModel{}).
		Where("voucher_id = ? AND user_id = ?", voucherID, userID).
		Count(&count).Error
	return count, err
}

// FindByVoucher lists redemptions of a voucher, newest first
func (r *GormVoucherUsageRepository) FindByVoucher(ctx context.Context, voucherID uuid.UUID, filter shared.Filter) ([]promotion.Usage, int64, error) {
	base := conn(ctx, r.db).Model(&models.VoucherUsageModel{}).Where("voucher_id = ?", voucherID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.VoucherUsageModel
	if err := paginate(base.Order("used_at DESC"), filter).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	usages := make([]promotion.Usage, len(rows))
	for i := range rows {
		usages[i] = rows[i].ToDomain()
	}
	return usages, total, nil
}

// DeleteByOrder removes the redemption recorded for an order
func (r *GormVoucherUsageRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) error {
	return conn(ctx, r.db).Where("order_id = ?", orderID).Delete(&models.VoucherUsageModel{}).Error
}

var (
	_ promotion.VoucherRepository = (*GormVoucherRepository)(nil)
	_ promotion.UsageRepository   = (*GormVoucherUsageRepository)(nil)
)
