package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements ordering.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("product_name ASC")
	})
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, args ...any) (*ordering.Order, error) {
	var model models.OrderModel
	if err := withItems(conn(ctx, r.db)).Where(query, args...).First(&model).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindByID loads an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByNumber loads an order by its customer-facing number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*ordering.Order, error) {
	return r.findOne(ctx, "order_number = ?", number)
}

// FindByPaymentReference loads the order paid through the given provider reference
func (r *GormOrderRepository) FindByPaymentReference(ctx context.Context, reference string) (*ordering.Order, error) {
	if reference == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "payment_reference = ?", reference)
}

// FindByIdempotencyKey returns the order a user created with the key
func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (*ordering.Order, error) {
	if key == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "user_id = ? AND idempotency_key = ?", userID, key)
}

// FindAll lists orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ordering.Order, error) {
	var rows []models.OrderModel
	query := r.applyFilter(withItems(conn(ctx, r.db)).Model(&models.OrderModel{}), filter)
	query = orderSort.apply(query, filter)
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.OrderModel{}), filter).Count(&count).Error
	return count, err
}

// FindExpiredPending returns unpaid orders created before the cutoff, oldest first
func (r *GormOrderRepository) FindExpiredPending(ctx context.Context, before time.Time, limit int) ([]ordering.Order, error) {
	var rows []models.OrderModel
	query := withItems(conn(ctx, r.db)).
		Where("status = ? AND created_at < ?", ordering.OrderStatusPendingPayment, before).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// CountBySlot counts orders booked into a slot
func (r *GormOrderRepository) CountBySlot(ctx context.Context, slotID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.OrderModel{}).Where("slot_id = ?", slotID).Count(&count).Error
	return count, err
}

// Save inserts a new order with its items, or updates a stored one under the
// version guard and replaces its items
func (r *GormOrderRepository) Save(ctx context.Context, o *ordering.Order) error {
	model := models.OrderModelFromDomain(o)
	if o.StoredVersion() == 0 {
		return saveAggregate(conn(ctx, r.db), model, &o.BaseAggregateRoot)
	}

	save := func(tx *gorm.DB) error {
		if err := saveAggregate(tx, model, &o.BaseAggregateRoot); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	}

	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return save(tx)
	}
	return r.db.WithContext(ctx).Transaction(save)
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		p := likePattern(filter.Search)
		query = query.Where("(LOWER(order_number) LIKE ? ESCAPE '\\' OR LOWER(ship_name) LIKE ? ESCAPE '\\' OR LOWER(ship_postcode) LIKE ? ESCAPE '\\')", p, p, p)
	}
	for key, value := range filter.Filters {
		switch key {
		case ordering.FilterKeyStatus:
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("status = ?", s)
			}
		case ordering.FilterKeyPaymentStatus:
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("payment_status = ?", s)
			}
		case ordering.FilterKeyUserID:
			if id, ok := value.(uuid.UUID); ok {
				query = query.Where("user_id = ?", id)
			}
		case ordering.FilterKeyFrom:
			if t, ok := value.(time.Time); ok && !t.IsZero() {
				query = query.Where("created_at >= ?", t)
			}
		case ordering.FilterKeyTo:
			if t, ok := value.(time.Time); ok && !t.IsZero() {
				query = query.Where("created_at < ?", t)
			}
		}
	}
	return query
}

func toOrders(rows []models.OrderModel) []ordering.Order {
	orders := make([]ordering.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders
}

var _ ordering.OrderRepository = (*GormOrderRepository)(nil)
