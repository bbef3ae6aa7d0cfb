package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormZoneRepository implements delivery.ZoneRepository using GORM
type GormZoneRepository struct {
	db *gorm.DB
}

// NewGormZoneRepository creates a new GormZoneRepository
func NewGormZoneRepository(db *gorm.DB) *GormZoneRepository {
	return &GormZoneRepository{db: db}
}

// FindByID finds a zone by its ID
func (r *GormZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Zone, error) {
	var model models.DeliveryZoneModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists zones matching the filter
func (r *GormZoneRepository) FindAll(ctx context.Context, filter shared.Filter) ([]delivery.Zone, error) {
	var rows []models.DeliveryZoneModel
	query := r.applyFilter(conn(ctx, r.db).Model(&models.DeliveryZoneModel{}), filter)
	query = zoneSort.apply(query, filter)
	if err := paginate(query, filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toZones(rows), nil
}

// FindActive returns every active zone, used for postcode resolution
func (r *GormZoneRepository) FindActive(ctx context.Context) ([]delivery.Zone, error) {
	var rows []models.DeliveryZoneModel
	if err := conn(ctx, r.db).Where("active = ?", true).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toZones(rows), nil
}

// Count counts zones matching the filter
func (r *GormZoneRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(conn(ctx, r.db).Model(&models.DeliveryZoneModel{}), filter).Count(&count).Error
	return count, err
}

// Save creates or updates a zone
func (r *GormZoneRepository) Save(ctx context.Context, zone *delivery.Zone) error {
	return saveAggregate(conn(ctx, r.db), models.DeliveryZoneModelFromDomain(zone), &zone.BaseAggregateRoot)
}

// Delete deletes a zone
func (r *GormZoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.DeliveryZoneModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormZoneRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePattern(filter.Search))
	}
	if active, ok := filter.Filters["active"].(bool); ok {
		query = query.Where("active = ?", active)
	}
	return query
}

func toZones(rows []models.DeliveryZoneModel) []delivery.Zone {
	zones := make([]delivery.Zone, len(rows))
	for i := range rows {
		zones[i] = *rows[i].ToDomain()
	}
	return zones
}

// GormSlotRepository implements delivery.SlotRepository using GORM
type GormSlotRepository struct {
	db *gorm.DB
}

// NewGormSlotRepository creates a new GormSlotRepository
func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

// FindByID finds a slot by its ID
func (r *GormSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Slot, error) {
	var model models.DeliverySlotModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return model.ToDomain(), nil
}

// Find returns slots ordered by start time
func (r *GormSlotRepository) Find(ctx context.Context, q delivery.SlotQuery) ([]delivery.Slot, error) {
	query := conn(ctx, r.db).Model(&models.DeliverySlotModel{})
	if q.ZoneID != nil {
		query = query.Where("zone_id = ?", *q.ZoneID)
	}
	if !q.From.IsZero() {
		query = query.Where("start_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("start_at < ?", q.To)
	}
	if q.AvailableOnly {
		query = query.Where("active = ? AND booked < capacity", true)
	}

	var rows []models.DeliverySlotModel
	if err := query.Order("start_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	slots := make([]delivery.Slot, len(rows))
	for i := range rows {
		slots[i] = *rows[i].ToDomain()
	}
	return slots, nil
}

// Save creates or updates a slot
func (r *GormSlotRepository) Save(ctx context.Context, slot *delivery.Slot) error {
	return saveAggregate(conn(ctx, r.db), models.DeliverySlotModelFromDomain(slot), &slot.BaseAggregateRoot)
}

// SaveBatch inserts new slots, skipping any that collide with an existing
// slot for the same zone and start time
func (r *GormSlotRepository) SaveBatch(ctx context.Context, slots []*delivery.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	rows := make([]*models.DeliverySlotModel, len(slots))
	for i, s := range slots {
		rows[i] = models.DeliverySlotModelFromDomain(s)
	}
	if err := conn(ctx, r.db).Clauses(onConflictDoNothing).CreateInBatches(rows, 100).Error; err != nil {
		return err
	}
	for _, s := range slots {
		s.MarkStored()
	}
	return nil
}

// Delete deletes a slot
func (r *GormSlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.DeliverySlotModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByZone counts slots in a zone
func (r *GormSlotRepository) CountByZone(ctx context.Context, zoneID uuid.UUID) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.DeliverySlotModel{}).Where("zone_id = ?", zoneID).Count(&count).Error
	return count, err
}

// Book takes one place in the slot with a conditional UPDATE so the booked
// count can never pass capacity
func (r *GormSlotRepository) Book(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	result := db.Model(&models.DeliverySlotModel{}).
		Where("id = ? AND active = ? AND booked < capacity", id, true).
		Updates(map[string]any{
			"booked":     gorm.Expr("booked + 1"),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var model models.DeliverySlotModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		return translate(err)
	}
	if !model.Active {
		return delivery.ErrSlotUnavailable
	}
	return delivery.ErrSlotFull
}

// Release gives one place back, never going below zero
func (r *GormSlotRepository) Release(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Model(&models.DeliverySlotModel{}).
		Where("id = ? AND booked > 0", id).
		Updates(map[string]any{
			"booked":     gorm.Expr("booked - 1"),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		}).Error
}

var (
	_ delivery.ZoneRepository = (*GormZoneRepository)(nil)
	_ delivery.SlotRepository = (*GormSlotRepository)(nil)
)
