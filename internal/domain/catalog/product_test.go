package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := NewProduct("apl-001", "Gala Apples", uuid.New(), decimal.NewFromFloat(2.49), UnitKg)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestNewProduct(t *testing.T) {
	categoryID := uuid.New()

	t.Run("creates product with valid inputs", func(t *testing.T) {
		p, err := NewProduct("apl-001", "  Gala Apples ", categoryID, decimal.NewFromFloat(2.49), UnitKg)
		require.NoError(t, err)

		assert.Equal(t, "APL-001", p.SKU)
		assert.Equal(t, "Gala Apples", p.Name)
		assert.Equal(t, "gala-apples", p.Slug)
		assert.Equal(t, categoryID, p.CategoryID)
		assert.True(t, p.Price.Equal(decimal.NewFromFloat(2.49)))
		assert.Equal(t, 0, p.Stock)
		assert.Equal(t, DefaultLowStockThreshold, p.LowStockThreshold)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.Equal(t, 1, p.GetVersion())
	})

	t.Run("publishes ProductCreated event", func(t *testing.T) {
		p, err := NewProduct("BRD-1", "Sourdough", categoryID, decimal.NewFromInt(3), UnitEach)
		require.NoError(t, err)

		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		event, ok := events[0].(*ProductCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, p.ID, event.ProductID)
		assert.Equal(t, "BRD-1", event.SKU)
	})

	tests := []struct {
		name       string
		sku        string
		pname      string
		categoryID uuid.UUID
		price      decimal.Decimal
		unit       ProductUnit
		code       string
	}{
		{"empty sku", "", "Milk", categoryID, decimal.NewFromInt(1), UnitL, "INVALID_SKU"},
		{"bad sku chars", "MILK 1L", "Milk", categoryID, decimal.NewFromInt(1), UnitL, "INVALID_SKU"},
		{"empty name", "MLK-1", "", categoryID, decimal.NewFromInt(1), UnitL, "INVALID_NAME"},
		{"no category", "MLK-1", "Milk", uuid.Nil, decimal.NewFromInt(1), UnitL, "INVALID_CATEGORY"},
		{"zero price", "MLK-1", "Milk", categoryID, decimal.Zero, UnitL, "INVALID_PRICE"},
		{"unknown unit", "MLK-1", "Milk", categoryID, decimal.NewFromInt(1), ProductUnit("crate"), "INVALID_UNIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProduct(tt.sku, tt.pname, tt.categoryID, tt.price, tt.unit)
			require.Error(t, err)
			assertDomainCode(t, err, tt.code)
		})
	}
}

func TestProduct_SetPrice(t *testing.T) {
	p := newTestProduct(t)

	compareAt := decimal.NewFromFloat(2.99)
	require.NoError(t, p.SetPrice(decimal.NewFromFloat(1.99), &compareAt))
	assert.True(t, p.OnSale())

	lower := decimal.NewFromFloat(0.99)
	err := p.SetPrice(decimal.NewFromFloat(1.99), &lower)
	assertDomainCode(t, err, "INVALID_PRICE")

	require.NoError(t, p.SetPrice(decimal.NewFromFloat(2.49), nil))
	assert.Nil(t, p.CompareAtPrice)
	assert.False(t, p.OnSale())
}

func TestProduct_Stock(t *testing.T) {
	t.Run("adjust never goes negative", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.AdjustStock(10, "delivery"))
		assert.Equal(t, 10, p.Stock)

		err := p.AdjustStock(-11, "recount")
		assertDomainCode(t, err, "INSUFFICIENT_STOCK")
		assert.Equal(t, 10, p.Stock)

		assertDomainCode(t, p.AdjustStock(0, "noop"), "INVALID_QUANTITY")
	})

	t.Run("deduct and restore", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.AdjustStock(3, "delivery"))

		assertDomainCode(t, p.DeductStock(4), "INSUFFICIENT_STOCK")
		require.NoError(t, p.DeductStock(3))
		assert.Equal(t, 0, p.Stock)
		assert.False(t, p.CanFulfil(1))

		require.NoError(t, p.RestoreStock(2))
		assert.Equal(t, 2, p.Stock)
		assertDomainCode(t, p.DeductStock(0), "INVALID_QUANTITY")
	})

	t.Run("low stock event fires when crossing threshold", func(t *testing.T) {
		p := newTestProduct(t)
		require.NoError(t, p.AdjustStock(20, "delivery"))
		p.ClearDomainEvents()

		require.NoError(t, p.DeductStock(15))
		events := p.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeProductStockChanged, events[0].EventType())
		assert.Equal(t, EventTypeProductLowStock, events[1].EventType())

		p.ClearDomainEvents()
		require.NoError(t, p.DeductStock(1))
		assert.Len(t, p.GetDomainEvents(), 1, "already below threshold, no second alert")
		assert.True(t, p.IsLowStock())
	})
}

func TestProduct_StatusTransitions(t *testing.T) {
	p := newTestProduct(t)

	assertDomainCode(t, p.Activate(), "ALREADY_ACTIVE")
	require.NoError(t, p.Deactivate())
	assert.False(t, p.IsActive())
	assert.False(t, p.CanFulfil(1))
	assertDomainCode(t, p.Deactivate(), "ALREADY_INACTIVE")
	require.NoError(t, p.Activate())
	assert.True(t, p.IsActive())
}

func TestProduct_SetImages(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.SetImages([]string{" https://cdn/a.jpg ", "", "https://cdn/b.jpg"}))
	assert.Equal(t, []string{"https://cdn/a.jpg", "https://cdn/b.jpg"}, p.ImageURLs)

	tooMany := make([]string, MaxProductImages+1)
	assertDomainCode(t, p.SetImages(tooMany), "INVALID_IMAGES")
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Crème Fraîche 200ml":  "creme-fraiche-200ml",
		"  Fruit & Veg  ":      "fruit-veg",
		"Already-a-slug":       "already-a-slug",
		"!!!":                  "",
		"Jalapeño Peppers (3)": "jalapeno-peppers-3",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
