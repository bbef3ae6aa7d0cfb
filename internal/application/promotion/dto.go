package promotion

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/shopspring/decimal"
)

// VoucherRequest creates or replaces a voucher
type VoucherRequest struct {
	Code         string           `json:"code" binding:"required,min=3,max=32"`
	Description  string           `json:"description" binding:"max=500"`
	Type         string           `json:"type" binding:"required,oneof=fixed percentage"`
	Value        decimal.Decimal  `json:"value"`
	MinimumOrder decimal.Decimal  `json:"minimum_order"`
	MaxDiscount  *decimal.Decimal `json:"max_discount"`
	MaxUses      *int             `json:"max_uses" binding:"omitempty,min=1"`
	PerUserLimit int              `json:"per_user_limit" binding:"min=0"`
	ValidFrom    *time.Time       `json:"valid_from"`
	ValidTo      *time.Time       `json:"valid_to"`
	Active       *bool            `json:"active"`
}

// VoucherFilter holds voucher listing query parameters
type VoucherFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at code used_count valid_to"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// VoucherResponse represents a voucher
type VoucherResponse struct {
	ID            uuid.UUID        `json:"id"`
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	Type          string           `json:"type"`
	Value         decimal.Decimal  `json:"value"`
	MinimumOrder  decimal.Decimal  `json:"minimum_order"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MaxUses       *int             `json:"max_uses,omitempty"`
	UsedCount     int              `json:"used_count"`
	RemainingUses int              `json:"remaining_uses"`
	PerUserLimit  int              `json:"per_user_limit"`
	ValidFrom     *time.Time       `json:"valid_from,omitempty"`
	ValidTo       *time.Time       `json:"valid_to,omitempty"`
	Active        bool             `json:"active"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToVoucherResponse converts a domain voucher
func ToVoucherResponse(v *promotion.Voucher) VoucherResponse {
	return VoucherResponse{
		ID:            v.ID,
		Code:          v.Code,
		Description:   v.Description,
		Type:          string(v.Type),
		Value:         v.Value,
		MinimumOrder:  v.MinimumOrder,
		MaxDiscount:   v.MaxDiscount,
		MaxUses:       v.MaxUses,
		UsedCount:     v.UsedCount,
		RemainingUses: v.RemainingUses(),
		PerUserLimit:  v.PerUserLimit,
		ValidFrom:     v.ValidFrom,
		ValidTo:       v.ValidTo,
		Active:        v.Active,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

// UsageResponse is one redemption of a voucher
type UsageResponse struct {
	ID       uuid.UUID       `json:"id"`
	UserID   uuid.UUID       `json:"user_id"`
	OrderID  uuid.UUID       `json:"order_id"`
	Discount decimal.Decimal `json:"discount"`
	UsedAt   time.Time       `json:"used_at"`
}

// ValidateVoucherRequest checks a code against a subtotal
type ValidateVoucherRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ValidateVoucherResponse reports the discount a code would give
type ValidateVoucherResponse struct {
	Code     string          `json:"code"`
	Type     string          `json:"type"`
	Discount decimal.Decimal `json:"discount"`
}
