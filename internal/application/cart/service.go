// Package cart contains the shopping cart use cases. Carts live in the
// cache layer and are priced from the catalog every time they are read.
package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/cart"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "This product is not available")
	ErrEmptyCart          = shared.NewDomainError("EMPTY_CART", "Your cart is empty")
)

// VoucherResolver checks a voucher code against a subtotal and returns the
// discount it gives
type VoucherResolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal, userID uuid.UUID) (*promotion.Voucher, decimal.Decimal, error)
}

// ZoneResolver finds the delivery zone that covers a postcode
type ZoneResolver interface {
	Resolve(ctx context.Context, postcode string) (*delivery.Zone, valueobject.Postcode, error)
}

// Service manages customer carts
type Service struct {
	store    cart.Store
	products catalog.ProductRepository
	vouchers VoucherResolver
	zones    ZoneResolver
	logger   *zap.Logger
}

// NewService creates a new cart Service
func NewService(store cart.Store, products catalog.ProductRepository, vouchers VoucherResolver, zones ZoneResolver, logger *zap.Logger) *Service {
	return &Service{store: store, products: products, vouchers: vouchers, zones: zones, logger: logger}
}

// Get returns the user's priced cart
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

// AddItem adds an active product, merging with an existing line. The
// resulting quantity may not exceed the stock on hand.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		if err := s.checkProduct(ctx, req.ProductID, c.Quantity(req.ProductID)+req.Quantity); err != nil {
			return err
		}
		return c.AddItem(req.ProductID, req.Quantity)
	})
}

// SetQuantity changes a line quantity; zero removes the line
func (s *Service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		if quantity > 0 {
			if err := s.checkProduct(ctx, productID, quantity); err != nil {
				return err
			}
		}
		return c.SetQuantity(productID, quantity)
	})
}

// RemoveItem removes a line
func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		return c.RemoveItem(productID)
	})
}

// Clear empties the cart and drops the voucher; the postcode is kept
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := s.store.Update(ctx, userID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
	return err
}

// ApplyVoucher validates the code against the current subtotal and stores
// it. Invalid codes are rejected and not stored.
func (s *Service) ApplyVoucher(ctx context.Context, userID uuid.UUID, code string) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		if c.IsEmpty() {
			return ErrEmptyCart
		}
		products, err := s.loadProducts(ctx, c)
		if err != nil {
			return err
		}
		subtotal := ordering.Quote(priceLines(c, products), decimal.Zero, decimal.Zero).Subtotal
		if _, _, err := s.vouchers.Resolve(ctx, code, subtotal, c.UserID); err != nil {
			return err
		}
		return c.ApplyVoucher(code)
	})
}

// RemoveVoucher drops the voucher code
func (s *Service) RemoveVoucher(ctx context.Context, userID uuid.UUID) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		c.RemoveVoucher()
		return nil
	})
}

// SetPostcode stores the delivery postcode. Postcodes outside every active
// zone are rejected with DELIVERY_NOT_AVAILABLE.
func (s *Service) SetPostcode(ctx context.Context, userID uuid.UUID, postcode string) (*View, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		if _, _, err := s.zones.Resolve(ctx, postcode); err != nil {
			return err
		}
		return c.SetPostcode(postcode)
	})
}

func (s *Service) mutate(ctx context.Context, userID uuid.UUID, change func(*cart.Cart) error) (*View, error) {
	c, err := s.store.Update(ctx, userID, change)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, c)
}

func (s *Service) checkProduct(ctx context.Context, productID uuid.UUID, quantity int) error {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrProductUnavailable
		}
		return err
	}
	if !product.IsActive() {
		return ErrProductUnavailable
	}
	if quantity > product.Stock {
		return shared.NewDomainErrorf(shared.ErrInsufficientStock.Code,
			"Only %d of %s left in stock", product.Stock, product.Name)
	}
	return nil
}

func (s *Service) loadProducts(ctx context.Context, c *cart.Cart) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(c.Items))
	if c.IsEmpty() {
		return out, nil
	}
	found, err := s.products.FindByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = &found[i]
	}
	return out, nil
}

// priceLines returns the lines of active products at their current price
func priceLines(c *cart.Cart, products map[uuid.UUID]*catalog.Product) []ordering.PriceLine {
	lines := make([]ordering.PriceLine, 0, len(c.Items))
	for _, item := range c.Items {
		p, ok := products[item.ProductID]
		if !ok || !p.IsActive() {
			continue
		}
		lines = append(lines, ordering.PriceLine{UnitPrice: p.Price, Quantity: item.Quantity})
	}
	return lines
}

// price builds the storefront view using the same Quote as checkout.
// Voucher and delivery problems are reported in the view instead of failing
// the read.
func (s *Service) price(ctx context.Context, c *cart.Cart) (*View, error) {
	products, err := s.loadProducts(ctx, c)
	if err != nil {
		return nil, err
	}

	view := &View{
		Items:       make([]LineView, 0, len(c.Items)),
		VoucherCode: c.VoucherCode,
		Postcode:    c.Postcode,
		UpdatedAt:   c.UpdatedAt,
	}
	allAvailable := true
	for _, item := range c.Items {
		line := LineView{ProductID: item.ProductID, Quantity: item.Quantity}
		if p, ok := products[item.ProductID]; ok {
			line.SKU = p.SKU
			line.Name = p.Name
			line.Slug = p.Slug
			line.Unit = string(p.Unit)
			line.UnitPrice = p.Price
			line.CompareAtPrice = p.CompareAtPrice
			line.StockLeft = p.Stock
			if len(p.ImageURLs) > 0 {
				line.ImageURL = p.ImageURLs[0]
			}
			line.Available = p.IsActive()
			line.InStock = p.CanFulfil(item.Quantity)
			if line.Available {
				line.LineTotal = ordering.PriceLine{UnitPrice: p.Price, Quantity: item.Quantity}.Total().Round(2)
			}
		}
		if !line.Available || !line.InStock {
			allAvailable = false
		}
		view.ItemCount += item.Quantity
		view.Items = append(view.Items, line)
	}

	lines := priceLines(c, products)
	subtotal := ordering.Quote(lines, decimal.Zero, decimal.Zero).Subtotal

	discount := decimal.Zero
	if c.VoucherCode != "" {
		_, d, err := s.vouchers.Resolve(ctx, c.VoucherCode, subtotal, c.UserID)
		switch {
		case err == nil:
			discount = d
		case isDomainError(err):
			view.VoucherError = err.Error()
		default:
			return nil, err
		}
	}

	fee := decimal.Zero
	deliverable := false
	if c.Postcode != "" {
		zone, _, err := s.zones.Resolve(ctx, c.Postcode)
		switch {
		case err == nil:
			view.Zone = &ZoneView{
				ID:                    zone.ID,
				Name:                  zone.Name,
				MinimumOrder:          zone.MinimumOrder,
				FreeDeliveryThreshold: zone.FreeDeliveryThreshold,
			}
			fee = zone.FeeFor(subtotal)
			if err := zone.CheckMinimumOrder(subtotal); err != nil {
				view.DeliveryError = err.Error()
			} else {
				deliverable = true
			}
		case isDomainError(err):
			view.DeliveryError = err.Error()
		default:
			return nil, err
		}
	}

	totals := ordering.Quote(lines, discount, fee)
	view.Subtotal = totals.Subtotal
	view.Discount = totals.Discount
	view.DeliveryFee = totals.DeliveryFee
	view.Total = totals.Total
	view.CanCheckout = !c.IsEmpty() && allAvailable && deliverable && view.VoucherError == ""
	return view, nil
}

func isDomainError(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de)
}
