// Package promotion holds discount vouchers and their redemption history.
package promotion

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VoucherType determines how the voucher value is applied
type VoucherType string

const (
	// VoucherTypeFixed takes a flat amount off the subtotal
	VoucherTypeFixed VoucherType = "fixed"
	// VoucherTypePercentage takes a percentage of the subtotal
	VoucherTypePercentage VoucherType = "percentage"
)

// IsValid returns true if the voucher type is known
func (t VoucherType) IsValid() bool {
	return t == VoucherTypeFixed || t == VoucherTypePercentage
}

var hundred = decimal.NewFromInt(100)

// Validation errors returned by Voucher.Validate
var (
	ErrVoucherNotFound   = shared.NewDomainError("VOUCHER_NOT_FOUND", "Voucher code is not valid")
	ErrVoucherInactive   = shared.NewDomainError("VOUCHER_INACTIVE", "This voucher is no longer active")
	ErrVoucherNotStarted = shared.NewDomainError("VOUCHER_NOT_STARTED", "This voucher is not valid yet")
	ErrVoucherExpired    = shared.NewDomainError("VOUCHER_EXPIRED", "This voucher has expired")
	ErrVoucherExhausted  = shared.NewDomainError("VOUCHER_EXHAUSTED", "This voucher has reached its usage limit")
	ErrVoucherUserLimit  = shared.NewDomainError("VOUCHER_USER_LIMIT", "You have already used this voucher")
)

// Voucher is a discount code. UsedCount never exceeds MaxUses when a cap is set.
type Voucher struct {
	shared.BaseAggregateRoot
	Code         string
	Description  string
	Type         VoucherType
	Value        decimal.Decimal
	MaxDiscount  *decimal.Decimal
	MinimumOrder decimal.Decimal
	MaxUses      *int
	UsedCount    int
	PerUserLimit int
	ValidFrom    *time.Time
	ValidTo      *time.Time
	Active       bool
}

// NewVoucher creates an active voucher with no usage limits or validity window
func NewVoucher(code string, voucherType VoucherType, value decimal.Decimal) (*Voucher, error) {
	code = NormalizeCode(code)
	if err := validateCode(code); err != nil {
		return nil, err
	}
	v := &Voucher{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		MinimumOrder:      decimal.Zero,
		Active:            true,
	}
	if err := v.setValue(voucherType, value); err != nil {
		return nil, err
	}
	return v, nil
}

// NormalizeCode upper-cases and trims a voucher code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Rename changes the code of a voucher that has not been redeemed yet
func (v *Voucher) Rename(code string) error {
	code = NormalizeCode(code)
	if code == v.Code {
		return nil
	}
	if v.UsedCount > 0 {
		return shared.NewDomainError("VOUCHER_IN_USE", "Voucher code cannot be changed after redemption")
	}
	if err := validateCode(code); err != nil {
		return err
	}
	v.Code = code
	v.IncrementVersion()
	return nil
}

// SetValue changes the discount type and value
func (v *Voucher) SetValue(voucherType VoucherType, value decimal.Decimal) error {
	if err := v.setValue(voucherType, value); err != nil {
		return err
	}
	v.IncrementVersion()
	return nil
}

func (v *Voucher) setValue(voucherType VoucherType, value decimal.Decimal) error {
	if !voucherType.IsValid() {
		return shared.NewDomainErrorf("INVALID_VOUCHER_TYPE", "Unknown voucher type: %s", voucherType)
	}
	if !value.IsPositive() {
		return shared.NewDomainError("INVALID_VOUCHER_VALUE", "Voucher value must be greater than zero")
	}
	if voucherType == VoucherTypePercentage && value.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_VOUCHER_VALUE", "Percentage cannot exceed 100")
	}
	v.Type = voucherType
	v.Value = value.Round(2)
	return nil
}

// SetDescription sets the customer-facing description
func (v *Voucher) SetDescription(description string) {
	v.Description = strings.TrimSpace(description)
	v.IncrementVersion()
}

// SetLimits sets the minimum order, the percentage cap, the total usage cap
// and the per-customer limit. A nil maxUses means unlimited and a zero
// perUserLimit means unlimited per customer.
func (v *Voucher) SetLimits(minimumOrder decimal.Decimal, maxDiscount *decimal.Decimal, maxUses *int, perUserLimit int) error {
	if minimumOrder.IsNegative() {
		return shared.NewDomainError("INVALID_MINIMUM_ORDER", "Minimum order cannot be negative")
	}
	if maxDiscount != nil && !maxDiscount.IsPositive() {
		return shared.NewDomainError("INVALID_MAX_DISCOUNT", "Maximum discount must be greater than zero")
	}
	if maxUses != nil && *maxUses < v.UsedCount {
		return shared.NewDomainErrorf("INVALID_MAX_USES", "Max uses cannot be below the %d redemptions already made", v.UsedCount)
	}
	if maxUses != nil && *maxUses < 1 {
		return shared.NewDomainError("INVALID_MAX_USES", "Max uses must be at least 1")
	}
	if perUserLimit < 0 {
		return shared.NewDomainError("INVALID_PER_USER_LIMIT", "Per-user limit cannot be negative")
	}

	v.MinimumOrder = minimumOrder.Round(2)
	v.MaxDiscount = maxDiscount
	v.MaxUses = maxUses
	v.PerUserLimit = perUserLimit
	v.IncrementVersion()
	return nil
}

// SetValidity sets the optional validity window
func (v *Voucher) SetValidity(from, to *time.Time) error {
	if from != nil && to != nil && !to.After(*from) {
		return shared.NewDomainError("INVALID_VALIDITY", "Voucher end date must be after its start date")
	}
	v.ValidFrom = from
	v.ValidTo = to
	v.IncrementVersion()
	return nil
}

// Activate enables the voucher
func (v *Voucher) Activate() error {
	if v.Active {
		return shared.NewDomainError("ALREADY_ACTIVE", "Voucher is already active")
	}
	v.Active = true
	v.IncrementVersion()
	return nil
}

// Deactivate disables the voucher
func (v *Voucher) Deactivate() error {
	if !v.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Voucher is already inactive")
	}
	v.Active = false
	v.IncrementVersion()
	return nil
}

// Validate checks whether the voucher can be applied to an order with the
// given subtotal by a customer who has already used it userUsage times.
func (v *Voucher) Validate(subtotal decimal.Decimal, now time.Time, userUsage int) error {
	if !v.Active {
		return ErrVoucherInactive
	}
	if v.ValidFrom != nil && now.Before(*v.ValidFrom) {
		return ErrVoucherNotStarted
	}
	if v.ValidTo != nil && now.After(*v.ValidTo) {
		return ErrVoucherExpired
	}
	if v.IsExhausted() {
		return ErrVoucherExhausted
	}
	if v.PerUserLimit > 0 && userUsage >= v.PerUserLimit {
		return ErrVoucherUserLimit
	}
	if subtotal.LessThan(v.MinimumOrder) {
		return shared.NewDomainErrorf("VOUCHER_MIN_ORDER",
			"Spend at least %s to use this voucher", v.MinimumOrder.StringFixed(2))
	}
	return nil
}

// Discount returns the raw discount for a subtotal: the flat value, or the
// percentage of the subtotal rounded half-up to cents and capped by
// MaxDiscount. Pricing clamps the result to the subtotal.
func (v *Voucher) Discount(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch v.Type {
	case VoucherTypeFixed:
		d = v.Value
	case VoucherTypePercentage:
		d = subtotal.Mul(v.Value).Div(hundred).Round(2)
		if v.MaxDiscount != nil && d.GreaterThan(*v.MaxDiscount) {
			d = *v.MaxDiscount
		}
	}
	return d
}

// IsExhausted reports whether the total usage cap has been reached
func (v *Voucher) IsExhausted() bool {
	return v.MaxUses != nil && v.UsedCount >= *v.MaxUses
}

// RemainingUses returns the redemptions left, or -1 when unlimited
func (v *Voucher) RemainingUses() int {
	if v.MaxUses == nil {
		return -1
	}
	if v.UsedCount >= *v.MaxUses {
		return 0
	}
	return *v.MaxUses - v.UsedCount
}

// Usage records one redemption of a voucher on an order
type Usage struct {
	ID        uuid.UUID
	VoucherID uuid.UUID
	UserID    uuid.UUID
	OrderID   uuid.UUID
	Discount  decimal.Decimal
	UsedAt    time.Time
}

// NewUsage creates a redemption record
func NewUsage(voucherID, userID, orderID uuid.UUID, discount decimal.Decimal) *Usage {
	return &Usage{
		ID:        uuid.New(),
		VoucherID: voucherID,
		UserID:    userID,
		OrderID:   orderID,
		Discount:  discount,
		UsedAt:    time.Now(),
	}
}

func validateCode(code string) error {
	if len(code) < 3 || len(code) > 32 {
		return shared.NewDomainError("INVALID_VOUCHER_CODE", "Voucher code must be 3 to 32 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return shared.NewDomainError("INVALID_VOUCHER_CODE", "Voucher code can only contain letters, numbers, dashes and underscores")
		}
	}
	return nil
}
