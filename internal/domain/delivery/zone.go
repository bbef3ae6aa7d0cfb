// Package delivery models where the shop delivers (zones matched by postcode
// prefix) and when (bookable slots with a fixed order capacity).
package delivery

import (
	"slices"
	"strings"

	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ErrDeliveryNotAvailable is returned when no active zone covers a postcode
var ErrDeliveryNotAvailable = shared.NewDomainError("DELIVERY_NOT_AVAILABLE", "We do not deliver to this postcode yet")

// Zone is a delivery area defined by a set of postcode prefixes
type Zone struct {
	shared.BaseAggregateRoot
	Name                  string
	PostcodePrefixes      []string
	DeliveryFee           decimal.Decimal
	MinimumOrder          decimal.Decimal
	FreeDeliveryThreshold *decimal.Decimal
	Active                bool
}

// NewZone creates an active delivery zone
func NewZone(name string, prefixes []string, fee, minimumOrder decimal.Decimal) (*Zone, error) {
	z := &Zone{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Active:            true,
	}
	if err := z.apply(name, prefixes, fee, minimumOrder); err != nil {
		return nil, err
	}
	return z, nil
}

// Update replaces the zone definition
func (z *Zone) Update(name string, prefixes []string, fee, minimumOrder decimal.Decimal) error {
	if err := z.apply(name, prefixes, fee, minimumOrder); err != nil {
		return err
	}
	z.IncrementVersion()
	return nil
}

func (z *Zone) apply(name string, prefixes []string, fee, minimumOrder decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Zone name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Zone name cannot exceed 100 characters")
	}
	if fee.IsNegative() {
		return shared.NewDomainError("INVALID_FEE", "Delivery fee cannot be negative")
	}
	if minimumOrder.IsNegative() {
		return shared.NewDomainError("INVALID_MINIMUM_ORDER", "Minimum order cannot be negative")
	}

	normalized := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = valueobject.NormalizePostcode(p)
		if p == "" || slices.Contains(normalized, p) {
			continue
		}
		normalized = append(normalized, p)
	}
	if len(normalized) == 0 {
		return shared.NewDomainError("INVALID_POSTCODES", "A zone needs at least one postcode prefix")
	}

	z.Name = name
	z.PostcodePrefixes = normalized
	z.DeliveryFee = fee.Round(2)
	z.MinimumOrder = minimumOrder.Round(2)
	return nil
}

// SetFreeDeliveryThreshold waives the delivery fee for subtotals at or above
// the threshold. Nil disables free delivery.
func (z *Zone) SetFreeDeliveryThreshold(threshold *decimal.Decimal) error {
	if threshold != nil && !threshold.IsPositive() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Free delivery threshold must be greater than zero")
	}
	if threshold != nil {
		t := threshold.Round(2)
		z.FreeDeliveryThreshold = &t
	} else {
		z.FreeDeliveryThreshold = nil
	}
	z.IncrementVersion()
	return nil
}

// Activate enables deliveries to the zone
func (z *Zone) Activate() {
	z.Active = true
	z.IncrementVersion()
}

// Deactivate stops deliveries to the zone
func (z *Zone) Deactivate() {
	z.Active = false
	z.IncrementVersion()
}

// MatchLength returns the length of the longest prefix that matches the
// postcode, or 0 when none does
func (z *Zone) MatchLength(postcode valueobject.Postcode) int {
	best := 0
	for _, p := range z.PostcodePrefixes {
		if postcode.HasPrefix(p) && len(p) > best {
			best = len(p)
		}
	}
	return best
}

// FeeFor returns the delivery fee for an order subtotal
func (z *Zone) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if z.FreeDeliveryThreshold != nil && subtotal.GreaterThanOrEqual(*z.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return z.DeliveryFee
}

// CheckMinimumOrder fails when subtotal is below the zone minimum
func (z *Zone) CheckMinimumOrder(subtotal decimal.Decimal) error {
	if subtotal.LessThan(z.MinimumOrder) {
		return shared.NewDomainErrorf("BELOW_MINIMUM_ORDER",
			"Minimum order for %s is %s", z.Name, z.MinimumOrder.StringFixed(2))
	}
	return nil
}

// ResolveZone picks the active zone whose prefix matches the postcode most
// specifically. Ties go to the first zone in the slice.
func ResolveZone(zones []Zone, postcode valueobject.Postcode) (*Zone, error) {
	var (
		best    *Zone
		bestLen int
	)
	for i := range zones {
		z := &zones[i]
		if !z.Active {
			continue
		}
		if n := z.MatchLength(postcode); n > bestLen {
			best, bestLen = z, n
		}
	}
	if best == nil {
		return nil, ErrDeliveryNotAvailable
	}
	return best, nil
}
