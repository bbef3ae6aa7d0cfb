package ordering

import (
	"github.com/shopspring/decimal"
)

// PriceLine is one priced line fed into a quote
type PriceLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total returns unit price times quantity
func (l PriceLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the result of pricing a basket
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Quote prices a basket. The applied discount never exceeds the subtotal, so
// the total is max(0, subtotal - discount) + deliveryFee. Negative discounts
// and fees are treated as zero.
func Quote(lines []PriceLine, discount, deliveryFee decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal = subtotal.Add(l.Total())
	}
	subtotal = subtotal.Round(2)

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if deliveryFee.IsNegative() {
		deliveryFee = decimal.Zero
	}

	return Totals{
		Subtotal:    subtotal,
		Discount:    discount.Round(2),
		DeliveryFee: deliveryFee.Round(2),
		Total:       subtotal.Sub(discount).Add(deliveryFee).Round(2),
	}
}
