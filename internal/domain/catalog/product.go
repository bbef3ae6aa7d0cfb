package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// ProductUnit is the selling unit shown next to the price
type ProductUnit string

const (
	UnitEach ProductUnit = "each"
	UnitKg   ProductUnit = "kg"
	UnitG    ProductUnit = "g"
	UnitL    ProductUnit = "l"
	UnitMl   ProductUnit = "ml"
	UnitPack ProductUnit = "pack"
)

// IsValid reports whether the unit is one of the supported selling units
func (u ProductUnit) IsValid() bool {
	switch u {
	case UnitEach, UnitKg, UnitG, UnitL, UnitMl, UnitPack:
		return true
	}
	return false
}

const (
	// MaxProductImages is the number of image URLs a product may carry
	MaxProductImages = 10
	// DefaultLowStockThreshold is used when a product is created without one
	DefaultLowStockThreshold = 5
)

// Product is a sellable grocery item. Stock is counted in selling units and
// can never go below zero.
type Product struct {
	shared.BaseAggregateRoot
	SKU               string
	Name              string
	Slug              string
	Description       string
	CategoryID        uuid.UUID
	Price             decimal.Decimal
	CompareAtPrice    *decimal.Decimal
	Unit              ProductUnit
	Stock             int
	LowStockThreshold int
	ImageURLs         []string
	Status            ProductStatus
	Featured          bool
}

// NewProduct creates an active product with zero stock
func NewProduct(sku, name string, categoryID uuid.UUID, price decimal.Decimal, unit ProductUnit) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	name = strings.TrimSpace(name)

	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Product category is required")
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_UNIT", "Unsupported unit: %s", unit)
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Slug:              Slugify(name),
		CategoryID:        categoryID,
		Price:             price.Round(2),
		Unit:              unit,
		LowStockThreshold: DefaultLowStockThreshold,
		ImageURLs:         []string{},
		Status:            ProductStatusActive,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update changes the descriptive fields of the product
func (p *Product) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	if len(description) > 5000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 5000 characters")
	}

	p.Name = name
	p.Description = strings.TrimSpace(description)
	p.IncrementVersion()
	return nil
}

// SetSlug overrides the generated slug
func (p *Product) SetSlug(slug string) error {
	slug = Slugify(slug)
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	p.Slug = slug
	p.IncrementVersion()
	return nil
}

// SetCategory moves the product to another category
func (p *Product) SetCategory(categoryID uuid.UUID) error {
	if categoryID == uuid.Nil {
		return shared.NewDomainError("INVALID_CATEGORY", "Product category is required")
	}
	p.CategoryID = categoryID
	p.IncrementVersion()
	return nil
}

// SetPrice sets the selling price and the optional compare-at ("was") price
func (p *Product) SetPrice(price decimal.Decimal, compareAt *decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if compareAt != nil && compareAt.LessThan(price) {
		return shared.NewDomainError("INVALID_PRICE", "Compare-at price must not be lower than the price")
	}

	p.Price = price.Round(2)
	if compareAt != nil {
		c := compareAt.Round(2)
		p.CompareAtPrice = &c
	} else {
		p.CompareAtPrice = nil
	}
	p.IncrementVersion()
	return nil
}

// SetImages replaces the product image list
func (p *Product) SetImages(urls []string) error {
	if len(urls) > MaxProductImages {
		return shared.NewDomainErrorf("INVALID_IMAGES", "A product can have at most %d images", MaxProductImages)
	}
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u != "" {
			cleaned = append(cleaned, u)
		}
	}
	p.ImageURLs = cleaned
	p.IncrementVersion()
	return nil
}

// SetFeatured toggles the storefront featured flag
func (p *Product) SetFeatured(featured bool) {
	p.Featured = featured
	p.IncrementVersion()
}

// SetLowStockThreshold sets the level at or below which a low stock alert fires
func (p *Product) SetLowStockThreshold(threshold int) error {
	if threshold < 0 {
		return shared.NewDomainError("INVALID_THRESHOLD", "Low stock threshold cannot be negative")
	}
	p.LowStockThreshold = threshold
	p.IncrementVersion()
	return nil
}

// AdjustStock applies a signed stock correction (restock, shrinkage, recount)
func (p *Product) AdjustStock(delta int, reason string) error {
	if delta == 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock adjustment cannot be zero")
	}
	newStock := p.Stock + delta
	if newStock < 0 {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Cannot adjust stock of %s by %d: only %d available", p.SKU, delta, p.Stock)
	}
	p.applyStock(newStock, reason)
	return nil
}

// DeductStock removes sold units
func (p *Product) DeductStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > p.Stock {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock for %s: requested %d, available %d", p.SKU, quantity, p.Stock)
	}
	p.applyStock(p.Stock-quantity, "sale")
	return nil
}

// RestoreStock puts back units from a cancelled order
func (p *Product) RestoreStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.applyStock(p.Stock+quantity, "restore")
	return nil
}

func (p *Product) applyStock(newStock int, reason string) {
	oldStock := p.Stock
	p.Stock = newStock
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStockChangedEvent(p, oldStock, newStock, reason))
	if oldStock > p.LowStockThreshold && newStock <= p.LowStockThreshold {
		p.AddDomainEvent(NewProductLowStockEvent(p))
	}
}

// Activate makes the product visible on the storefront
func (p *Product) Activate() error {
	if p.Status == ProductStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	p.setStatus(ProductStatusActive)
	return nil
}

// Deactivate hides the product from the storefront
func (p *Product) Deactivate() error {
	if p.Status == ProductStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.setStatus(ProductStatusInactive)
	return nil
}

func (p *Product) setStatus(status ProductStatus) {
	old := p.Status
	p.Status = status
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStatusChangedEvent(p, old, status))
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// IsLowStock reports whether stock is at or below the alert threshold
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// CanFulfil reports whether quantity units can be sold right now
func (p *Product) CanFulfil(quantity int) bool {
	return p.IsActive() && quantity > 0 && quantity <= p.Stock
}

// OnSale reports whether a compare-at price above the current price is set
func (p *Product) OnSale() bool {
	return p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price)
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	if price.Exponent() < -2 && !price.Equal(price.Round(2)) {
		return shared.NewDomainError("INVALID_PRICE", fmt.Sprintf("Price %s has more than 2 decimal places", price))
	}
	return nil
}
