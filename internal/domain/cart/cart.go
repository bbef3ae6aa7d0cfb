// Package cart holds the server-side shopping cart of a customer.
package cart

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
)

const (
	// MaxLineQuantity caps the quantity of a single product
	MaxLineQuantity = 99
	// MaxLines caps the number of distinct products
	MaxLines = 100
)

// Item is one product line in the cart
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart is a customer's basket. Prices are not stored; they are resolved
// from the catalog whenever the cart is viewed.
type Cart struct {
	UserID      uuid.UUID `json:"user_id"`
	Items       []Item    `json:"items"`
	VoucherCode string    `json:"voucher_code,omitempty"`
	Postcode    string    `json:"postcode,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New returns an empty cart for a user
func New(userID uuid.UUID) *Cart {
	return &Cart{
		UserID:    userID,
		Items:     make([]Item, 0),
		UpdatedAt: time.Now(),
	}
}

// AddItem adds a product, merging with an existing line
func (c *Cart) AddItem(productID uuid.UUID, quantity int) error {
	if productID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if i := c.indexOf(productID); i >= 0 {
		next := c.Items[i].Quantity + quantity
		if next > MaxLineQuantity {
			return shared.NewDomainErrorf("INVALID_QUANTITY", "Quantity cannot exceed %d", MaxLineQuantity)
		}
		c.Items[i].Quantity = next
		c.touch()
		return nil
	}
	if quantity > MaxLineQuantity {
		return shared.NewDomainErrorf("INVALID_QUANTITY", "Quantity cannot exceed %d", MaxLineQuantity)
	}
	if len(c.Items) >= MaxLines {
		return shared.NewDomainErrorf("CART_FULL", "A cart cannot hold more than %d products", MaxLines)
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity, AddedAt: time.Now()})
	c.touch()
	return nil
}

// SetQuantity sets the quantity of a line. Zero removes the line.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if quantity > MaxLineQuantity {
		return shared.NewDomainErrorf("INVALID_QUANTITY", "Quantity cannot exceed %d", MaxLineQuantity)
	}
	i := c.indexOf(productID)
	if i < 0 {
		if quantity == 0 {
			return nil
		}
		return c.AddItem(productID, quantity)
	}
	if quantity == 0 {
		c.removeAt(i)
	} else {
		c.Items[i].Quantity = quantity
	}
	c.touch()
	return nil
}

// RemoveItem removes a line
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	i := c.indexOf(productID)
	if i < 0 {
		return shared.NewDomainError("ITEM_NOT_IN_CART", "Product is not in the cart")
	}
	c.removeAt(i)
	c.touch()
	return nil
}

// Clear empties the cart and drops the voucher. The postcode is kept.
func (c *Cart) Clear() {
	c.Items = make([]Item, 0)
	c.VoucherCode = ""
	c.touch()
}

// ApplyVoucher stores a voucher code. Validation against the current
// subtotal happens in the application layer.
func (c *Cart) ApplyVoucher(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return shared.NewDomainError("INVALID_VOUCHER_CODE", "Voucher code is required")
	}
	c.VoucherCode = code
	c.touch()
	return nil
}

// RemoveVoucher drops the voucher code
func (c *Cart) RemoveVoucher() {
	c.VoucherCode = ""
	c.touch()
}

// SetPostcode stores the delivery postcode used to price delivery
func (c *Cart) SetPostcode(postcode string) error {
	pc, err := valueobject.NewPostcode(postcode)
	if err != nil {
		return err
	}
	c.Postcode = pc.String()
	c.touch()
	return nil
}

// IsEmpty returns true when the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity returns the quantity of a product, zero when absent
func (c *Cart) Quantity(productID uuid.UUID) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// ProductIDs returns the product ids in line order
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	return ids
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

// ErrCartBusy is returned when a cart kept changing underneath an update
var ErrCartBusy = shared.NewDomainError("CART_CONFLICT", "The cart was changed by another request, please retry")

// Store persists carts keyed by user
type Store interface {
	// Get returns the user's cart, or an empty cart when none is stored
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// Update loads the cart, applies change and stores the result as one
	// step. A concurrent write to the same cart makes it retry change on
	// the fresh cart, so no edit is lost. When change fails nothing is stored.
	Update(ctx context.Context, userID uuid.UUID, change func(*Cart) error) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
