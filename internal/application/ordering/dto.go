package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// AddressRequest is the delivery address entered at checkout
type AddressRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Line1    string `json:"line1" binding:"required,max=200"`
	Line2    string `json:"line2" binding:"max=200"`
	City     string `json:"city" binding:"required,max=100"`
	Postcode string `json:"postcode" binding:"required,max=16"`
	Phone    string `json:"phone" binding:"required,max=30"`
}

// CheckoutRequest places an order from the customer's cart
type CheckoutRequest struct {
	SlotID  uuid.UUID      `json:"slot_id" binding:"required"`
	Address AddressRequest `json:"address" binding:"required"`
	Notes   string         `json:"notes" binding:"max=500"`
}

// CancelRequest cancels an order
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AdvanceStatusRequest moves an order through fulfilment
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=preparing out_for_delivery delivered"`
}

// OrderFilter holds order listing query parameters
type OrderFilter struct {
	Search        string `form:"search"`
	Status        string `form:"status" binding:"omitempty,oneof=pending_payment paid preparing out_for_delivery delivered cancelled refunded"`
	PaymentStatus string `form:"payment_status" binding:"omitempty,oneof=unpaid paid failed refunded"`
	UserID        string `form:"user_id" binding:"omitempty,uuid"`
	From          string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To            string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by" binding:"omitempty,oneof=created_at updated_at total status slot_start"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse is an order line
type OrderItemResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// AddressResponse is the delivery address of an order
type AddressResponse struct {
	Name     string `json:"name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Phone    string `json:"phone"`
}

// OrderResponse represents an order
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      string              `json:"order_number"`
	UserID           uuid.UUID           `json:"user_id"`
	Items            []OrderItemResponse `json:"items"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	Discount         decimal.Decimal     `json:"discount"`
	DeliveryFee      decimal.Decimal     `json:"delivery_fee"`
	Total            decimal.Decimal     `json:"total"`
	VoucherCode      string              `json:"voucher_code,omitempty"`
	ZoneID           uuid.UUID           `json:"zone_id"`
	SlotID           uuid.UUID           `json:"slot_id"`
	SlotStart        time.Time           `json:"slot_start"`
	SlotEnd          time.Time           `json:"slot_end"`
	Address          AddressResponse     `json:"address"`
	Notes            string              `json:"notes,omitempty"`
	Status           string              `json:"status"`
	PaymentStatus    string              `json:"payment_status"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	CanCancel        bool                `json:"can_cancel"`
	PaidAt           *time.Time          `json:"paid_at,omitempty"`
	DispatchedAt     *time.Time          `json:"dispatched_at,omitempty"`
	DeliveredAt      *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
	RefundedAt       *time.Time          `json:"refunded_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *ordering.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Unit:        item.Unit,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		}
	}
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Items:       items,
		Subtotal:    o.Subtotal,
		Discount:    o.Discount,
		DeliveryFee: o.DeliveryFee,
		Total:       o.Total,
		VoucherCode: o.VoucherCode,
		ZoneID:      o.ZoneID,
		SlotID:      o.SlotID,
		SlotStart:   o.SlotStart,
		SlotEnd:     o.SlotEnd,
		Address: AddressResponse{
			Name:     o.Address.RecipientName,
			Line1:    o.Address.Line1,
			Line2:    o.Address.Line2,
			City:     o.Address.City,
			Postcode: o.Address.Postcode,
			Phone:    o.Address.Phone,
		},
		Notes:            o.Notes,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		PaymentReference: o.PaymentReference,
		CanCancel:        o.CanCustomerCancel(),
		PaidAt:           o.PaidAt,
		DispatchedAt:     o.DispatchedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		RefundedAt:       o.RefundedAt,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// PaymentResponse carries what the storefront needs to confirm a payment
type PaymentResponse struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// CheckoutResponse is the placed order and its payment intent
type CheckoutResponse struct {
	Order   OrderResponse    `json:"order"`
	Payment *PaymentResponse `json:"payment,omitempty"`
	Replay  bool             `json:"replay,omitempty"`
}

func toPaymentResponse(intent *ordering.PaymentIntent) *PaymentResponse {
	if intent == nil {
		return nil
	}
	return &PaymentResponse{Reference: intent.Reference, ClientSecret: intent.ClientSecret, Status: intent.Status}
}
