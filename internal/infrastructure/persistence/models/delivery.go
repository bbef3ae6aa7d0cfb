package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/shopspring/decimal"
)

// DeliveryZoneModel is the persistence model for the delivery Zone aggregate
type DeliveryZoneModel struct {
	AggregateModel
	Name                  string           `gorm:"type:varchar(100);not null;uniqueIndex"`
	PostcodePrefixes      []string         `gorm:"type:text;not null;serializer:json"`
	DeliveryFee           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MinimumOrder          decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	FreeDeliveryThreshold *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Active                bool             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DeliveryZoneModel) TableName() string {
	return "delivery_zones"
}

// ToDomain converts the persistence model to a domain Zone
func (m *DeliveryZoneModel) ToDomain() *delivery.Zone {
	return &delivery.Zone{
		BaseAggregateRoot:     m.root(),
		Name:                  m.Name,
		PostcodePrefixes:      m.PostcodePrefixes,
		DeliveryFee:           m.DeliveryFee,
		MinimumOrder:          m.MinimumOrder,
		FreeDeliveryThreshold: m.FreeDeliveryThreshold,
		Active:                m.Active,
	}
}

// DeliveryZoneModelFromDomain creates a persistence model from a domain Zone
func DeliveryZoneModelFromDomain(z *delivery.Zone) *DeliveryZoneModel {
	m := &DeliveryZoneModel{
		Name:                  z.Name,
		PostcodePrefixes:      z.PostcodePrefixes,
		DeliveryFee:           z.DeliveryFee,
		MinimumOrder:          z.MinimumOrder,
		FreeDeliveryThreshold: z.FreeDeliveryThreshold,
		Active:                z.Active,
	}
	m.AggregateModel = newAggregateModel(z.BaseAggregateRoot)
	return m
}

// DeliverySlotModel is the persistence model for a bookable delivery Slot.
// The migrations add CHECK (booked >= 0 AND booked <= capacity).
type DeliverySlotModel struct {
	AggregateModel
	ZoneID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_slot_zone_start,priority:1"`
	StartAt  time.Time `gorm:"not null;uniqueIndex:idx_slot_zone_start,priority:2;index"`
	EndAt    time.Time `gorm:"not null"`
	Capacity int       `gorm:"not null"`
	Booked   int       `gorm:"not null;default:0"`
	Active   bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DeliverySlotModel) TableName() string {
	return "delivery_slots"
}

// ToDomain converts the persistence model to a domain Slot
func (m *DeliverySlotModel) ToDomain() *delivery.Slot {
	return &delivery.Slot{
		BaseAggregateRoot: m.root(),
		ZoneID:            m.ZoneID,
		StartAt:           m.StartAt,
		EndAt:             m.EndAt,
		Capacity:          m.Capacity,
		Booked:            m.Booked,
		Active:            m.Active,
	}
}

// DeliverySlotModelFromDomain creates a persistence model from a domain Slot
func DeliverySlotModelFromDomain(s *delivery.Slot) *DeliverySlotModel {
	m := &DeliverySlotModel{
		ZoneID:   s.ZoneID,
		StartAt:  s.StartAt,
		EndAt:    s.EndAt,
		Capacity: s.Capacity,
		Booked:   s.Booked,
		Active:   s.Active,
	}
	m.AggregateModel = newAggregateModel(s.BaseAggregateRoot)
	return m
}
