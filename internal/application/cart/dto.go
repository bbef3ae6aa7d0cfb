package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// SetQuantityRequest sets a line quantity; zero removes the line
type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// ApplyVoucherRequest applies a voucher code
type ApplyVoucherRequest struct {
	Code string `json:"code" binding:"required,min=3,max=32"`
}

// SetPostcodeRequest sets the delivery postcode
type SetPostcodeRequest struct {
	Postcode string `json:"postcode" binding:"required,max=16"`
}

// LineView is a cart line priced at the current catalog price
type LineView struct {
	ProductID      uuid.UUID        `json:"product_id"`
	SKU            string           `json:"sku,omitempty"`
	Name           string           `json:"name,omitempty"`
	Slug           string           `json:"slug,omitempty"`
	Unit           string           `json:"unit,omitempty"`
	ImageURL       string           `json:"image_url,omitempty"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Quantity       int              `json:"quantity"`
	LineTotal      decimal.Decimal  `json:"line_total"`
	Available      bool             `json:"available"`
	InStock        bool             `json:"in_stock"`
	StockLeft      int              `json:"stock_left"`
}

// ZoneView is the delivery zone resolved from the cart postcode
type ZoneView struct {
	ID                    uuid.UUID        `json:"id"`
	Name                  string           `json:"name"`
	MinimumOrder          decimal.Decimal  `json:"minimum_order"`
	FreeDeliveryThreshold *decimal.Decimal `json:"free_delivery_threshold,omitempty"`
}

// View is the priced cart returned to the storefront
type View struct {
	Items         []LineView      `json:"items"`
	ItemCount     int             `json:"item_count"`
	VoucherCode   string          `json:"voucher_code,omitempty"`
	VoucherError  string          `json:"voucher_error,omitempty"`
	Postcode      string          `json:"postcode,omitempty"`
	Zone          *ZoneView       `json:"zone,omitempty"`
	DeliveryError string          `json:"delivery_error,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Total         decimal.Decimal `json:"total"`
	CanCheckout   bool            `json:"can_checkout"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
