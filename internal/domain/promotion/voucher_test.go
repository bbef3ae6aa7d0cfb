package promotion

import (
	"errors"
	"testing"
	"time"

	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func codeOf(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestNewVoucher(t *testing.T) {
	v, err := NewVoucher(" save10 ", VoucherTypePercentage, dec("10"))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", v.Code)
	assert.True(t, v.Active)
	assert.Equal(t, -1, v.RemainingUses())

	tests := []struct {
		name  string
		code  string
		vtype VoucherType
		value decimal.Decimal
		want  string
	}{
		{"short code", "AB", VoucherTypeFixed, dec("5"), "INVALID_VOUCHER_CODE"},
		{"bad chars", "SAVE 10", VoucherTypeFixed, dec("5"), "INVALID_VOUCHER_CODE"},
		{"unknown type", "SAVE10", VoucherType("bogo"), dec("5"), "INVALID_VOUCHER_TYPE"},
		{"zero value", "SAVE10", VoucherTypeFixed, decimal.Zero, "INVALID_VOUCHER_VALUE"},
		{"over 100 percent", "SAVE10", VoucherTypePercentage, dec("100.01"), "INVALID_VOUCHER_VALUE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVoucher(tt.code, tt.vtype, tt.value)
			assert.Equal(t, tt.want, codeOf(err))
		})
	}
}

func TestVoucher_Discount(t *testing.T) {
	t.Run("fixed amount", func(t *testing.T) {
		v, err := NewVoucher("FIVEOFF", VoucherTypeFixed, dec("5"))
		require.NoError(t, err)
		assert.True(t, v.Discount(dec("42.10")).Equal(dec("5")))
		assert.True(t, v.Discount(dec("3")).Equal(dec("5")), "clamping happens in pricing")
		assert.True(t, v.Discount(decimal.Zero).IsZero())
	})

	t.Run("percentage rounds half up to cents", func(t *testing.T) {
		v, err := NewVoucher("TENPC", VoucherTypePercentage, dec("10"))
		require.NoError(t, err)
		assert.Equal(t, "3.33", v.Discount(dec("33.25")).StringFixed(2))
		assert.Equal(t, "3.34", v.Discount(dec("33.35")).StringFixed(2))
	})

	t.Run("percentage capped by max discount", func(t *testing.T) {
		v, err := NewVoucher("HALF", VoucherTypePercentage, dec("50"))
		require.NoError(t, err)
		maxDiscount := dec("15")
		require.NoError(t, v.SetLimits(decimal.Zero, &maxDiscount, nil, 0))
		assert.True(t, v.Discount(dec("100")).Equal(dec("15")))
		assert.True(t, v.Discount(dec("20")).Equal(dec("10")))
	})
}

func TestVoucher_Validate(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	newVoucher := func(t *testing.T) *Voucher {
		v, err := NewVoucher("SPRING", VoucherTypeFixed, dec("5"))
		require.NoError(t, err)
		return v
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, newVoucher(t).Validate(dec("10"), now, 0))
	})

	t.Run("inactive", func(t *testing.T) {
		v := newVoucher(t)
		require.NoError(t, v.Deactivate())
		assert.ErrorIs(t, v.Validate(dec("10"), now, 0), ErrVoucherInactive)
	})

	t.Run("validity window", func(t *testing.T) {
		v := newVoucher(t)
		from := now.Add(time.Hour)
		to := now.Add(48 * time.Hour)
		require.NoError(t, v.SetValidity(&from, &to))
		assert.ErrorIs(t, v.Validate(dec("10"), now, 0), ErrVoucherNotStarted)
		assert.NoError(t, v.Validate(dec("10"), now.Add(2*time.Hour), 0))
		assert.ErrorIs(t, v.Validate(dec("10"), now.Add(49*time.Hour), 0), ErrVoucherExpired)

		assert.Equal(t, "INVALID_VALIDITY", codeOf(v.SetValidity(&to, &from)))
	})

	t.Run("usage caps", func(t *testing.T) {
		v := newVoucher(t)
		maxUses := 2
		require.NoError(t, v.SetLimits(decimal.Zero, nil, &maxUses, 1))
		assert.ErrorIs(t, v.Validate(dec("10"), now, 1), ErrVoucherUserLimit)

		v.UsedCount = 2
		assert.ErrorIs(t, v.Validate(dec("10"), now, 0), ErrVoucherExhausted)
		assert.Equal(t, 0, v.RemainingUses())

		lower := 1
		assert.Equal(t, "INVALID_MAX_USES", codeOf(v.SetLimits(decimal.Zero, nil, &lower, 0)))
	})

	t.Run("minimum order", func(t *testing.T) {
		v := newVoucher(t)
		require.NoError(t, v.SetLimits(dec("30"), nil, nil, 0))
		err := v.Validate(dec("29.99"), now, 0)
		assert.Equal(t, "VOUCHER_MIN_ORDER", codeOf(err))
		assert.Contains(t, err.Error(), "30.00")
	})
}

func TestVoucher_Rename(t *testing.T) {
	v, err := NewVoucher("SPRING", VoucherTypeFixed, dec("5"))
	require.NoError(t, err)
	require.NoError(t, v.Rename(" spring-25 "))
	assert.Equal(t, "SPRING-25", v.Code)

	assert.Equal(t, "INVALID_VOUCHER_CODE", codeOf(v.Rename("x")))

	v.UsedCount = 1
	assert.Equal(t, "VOUCHER_IN_USE", codeOf(v.Rename("OTHER")))
	assert.NoError(t, v.Rename("spring-25"), "same code is a no-op")
}
