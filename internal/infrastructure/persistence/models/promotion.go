package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/shopspring/decimal"
)

// VoucherModel is the persistence model for the Voucher aggregate.
// The migrations add CHECK (max_uses IS NULL OR used_count <= max_uses).
type VoucherModel struct {
	AggregateModel
	Code         string                `gorm:"type:varchar(32);not null;uniqueIndex"`
	Description  string                `gorm:"type:varchar(255)"`
	Type         promotion.VoucherType `gorm:"type:varchar(20);not null"`
	Value        decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	MaxDiscount  *decimal.Decimal      `gorm:"type:decimal(12,2)"`
	MinimumOrder decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	MaxUses      *int
	UsedCount    int `gorm:"not null;default:0"`
	PerUserLimit int `gorm:"not null;default:0"`
	ValidFrom    *time.Time
	ValidTo      *time.Time
	Active       bool `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (VoucherModel) TableName() string {
	return "vouchers"
}

// ToDomain converts the persistence model to a domain Voucher
func (m *VoucherModel) ToDomain() *promotion.Voucher {
	return &promotion.Voucher{
		BaseAggregateRoot: m.root(),
		Code:              m.Code,
		Description:       m.Description,
		Type:              m.Type,
		Value:             m.Value,
		MaxDiscount:       m.MaxDiscount,
		MinimumOrder:      m.MinimumOrder,
		MaxUses:           m.MaxUses,
		UsedCount:         m.UsedCount,
		PerUserLimit:      m.PerUserLimit,
		ValidFrom:         m.ValidFrom,
		ValidTo:           m.ValidTo,
		Active:            m.Active,
	}
}

// VoucherModelFromDomain creates a persistence model from a domain Voucher
func VoucherModelFromDomain(v *promotion.Voucher) *VoucherModel {
	m := &VoucherModel{
		Code:         v.Code,
		Description:  v.Description,
		Type:         v.Type,
		Value:        v.Value,
		MaxDiscount:  v.MaxDiscount,
		MinimumOrder: v.MinimumOrder,
		MaxUses:      v.MaxUses,
		UsedCount:    v.UsedCount,
		PerUserLimit: v.PerUserLimit,
		ValidFrom:    v.ValidFrom,
		ValidTo:      v.ValidTo,
		Active:       v.Active,
	}
	m.AggregateModel = newAggregateModel(v.BaseAggregateRoot)
	return m
}

// VoucherUsageModel records one redemption of a voucher
type VoucherUsageModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VoucherID uuid.UUID       `gorm:"type:uuid;not null;index:idx_usage_voucher_user,priority:1"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_usage_voucher_user,priority:2"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Discount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UsedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VoucherUsageModel) TableName() string {
	return "voucher_usages"
}

// ToDomain converts the persistence model to a domain Usage
func (m *VoucherUsageModel) ToDomain() promotion.Usage {
	return promotion.Usage{
		ID:        m.ID,
		VoucherID: m.VoucherID,
		UserID:    m.UserID,
		OrderID:   m.OrderID,
		Discount:  m.Discount,
		UsedAt:    m.UsedAt,
	}
}

// VoucherUsageModelFromDomain creates a persistence model from a domain Usage
func VoucherUsageModelFromDomain(u *promotion.Usage) *VoucherUsageModel {
	return &VoucherUsageModel{
		ID:        u.ID,
		VoucherID: u.VoucherID,
		UserID:    u.UserID,
		OrderID:   u.OrderID,
		Discount:  u.Discount,
		UsedAt:    u.UsedAt,
	}
}
