// Package ordering holds the order aggregate, its status machine and pricing.
package ordering

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment status of an order
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// AllOrderStatuses lists every status in lifecycle order
var AllOrderStatuses = []OrderStatus{
	OrderStatusPendingPayment,
	OrderStatusPaid,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	for _, v := range AllOrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsFinal returns true when no further transition is possible
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CountsAsRevenue returns true for orders that have been paid and not refunded
func (s OrderStatus) CountsAsRevenue() bool {
	switch s {
	case OrderStatusPaid, OrderStatusPreparing, OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo checks if transition to target status is allowed
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPendingPayment:
		return target == OrderStatusPaid || target == OrderStatusCancelled
	case OrderStatusPaid:
		return target == OrderStatusPreparing || target == OrderStatusCancelled || target == OrderStatusRefunded
	case OrderStatusPreparing:
		return target == OrderStatusOutForDelivery || target == OrderStatusCancelled || target == OrderStatusRefunded
	case OrderStatusOutForDelivery:
		return target == OrderStatusDelivered || target == OrderStatusRefunded
	case OrderStatusDelivered:
		return target == OrderStatusRefunded
	default:
		return false
	}
}

// PaymentStatus tracks the payment side of an order independently of fulfilment
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid checks if the payment status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// OrderItem is a line of an order. Name, SKU and price are snapshots taken at checkout.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Unit        string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// Order is the aggregate root for a customer order
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber      string
	UserID           uuid.UUID
	Items            []OrderItem
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	DeliveryFee      decimal.Decimal
	Total            decimal.Decimal
	VoucherID        *uuid.UUID
	VoucherCode      string
	ZoneID           uuid.UUID
	SlotID           uuid.UUID
	SlotStart        time.Time
	SlotEnd          time.Time
	Address          valueobject.Address
	Notes            string
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentReference string
	IdempotencyKey   string
	PaidAt           *time.Time
	DispatchedAt     *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string
	RefundedAt       *time.Time
}

// NewOrder creates an empty order awaiting items and delivery details
func NewOrder(userID uuid.UUID, address valueobject.Address) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Order must belong to a user")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       GenerateOrderNumber(time.Now()),
		UserID:            userID,
		Items:             make([]OrderItem, 0),
		Subtotal:          decimal.Zero,
		Discount:          decimal.Zero,
		DeliveryFee:       decimal.Zero,
		Total:             decimal.Zero,
		Address:           address,
		Status:            OrderStatusPendingPayment,
		PaymentStatus:     PaymentStatusUnpaid,
	}, nil
}

// AddItem appends a line. Adding the same product twice merges the quantities.
func (o *Order) AddItem(productID uuid.UUID, name, sku, unit string, unitPrice decimal.Decimal, quantity int) error {
	if o.Status != OrderStatusPendingPayment || o.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Items can only be added before the order is placed")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			o.Items[i].Quantity += quantity
			o.Items[i].LineTotal = o.Items[i].UnitPrice.Mul(decimal.NewFromInt(int64(o.Items[i].Quantity))).Round(2)
			return nil
		}
	}

	o.Items = append(o.Items, OrderItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: name,
		SKU:         sku,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
	})
	return nil
}

// SetDelivery records the zone and booked slot
func (o *Order) SetDelivery(zoneID, slotID uuid.UUID, slotStart, slotEnd time.Time, fee decimal.Decimal) {
	o.ZoneID = zoneID
	o.SlotID = slotID
	o.SlotStart = slotStart
	o.SlotEnd = slotEnd
	o.DeliveryFee = fee
}

// ApplyVoucher records the redeemed voucher and its raw discount
func (o *Order) ApplyVoucher(voucherID uuid.UUID, code string, discount decimal.Decimal) {
	o.VoucherID = &voucherID
	o.VoucherCode = code
	o.Discount = discount
}

// SetNotes sets free-form delivery notes
func (o *Order) SetNotes(notes string) {
	o.Notes = strings.TrimSpace(notes)
}

// Place finalizes totals and raises OrderPlaced. The order must have items
// and delivery details.
func (o *Order) Place() error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("EMPTY_ORDER", "Cannot place an order without items")
	}
	if o.ZoneID == uuid.Nil || o.SlotID == uuid.Nil {
		return shared.NewDomainError("NO_DELIVERY_SLOT", "A delivery slot is required")
	}
	o.recalculateTotals()
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return nil
}

// Lines returns the items as pricing lines
func (o *Order) Lines() []PriceLine {
	lines := make([]PriceLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, PriceLine{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	return lines
}

// ItemCount returns the total number of units on the order
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// AttachPayment records the provider reference of the payment intent
func (o *Order) AttachPayment(reference string) error {
	if o.Status != OrderStatusPendingPayment {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot take payment for order in %s status", o.Status)
	}
	o.PaymentReference = reference
	if o.PaymentStatus == PaymentStatusFailed {
		o.PaymentStatus = PaymentStatusUnpaid
	}
	o.IncrementVersion()
	return nil
}

// MarkPaid moves a pending order to paid
func (o *Order) MarkPaid(reference string) error {
	if !o.Status.CanTransitionTo(OrderStatusPaid) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot mark order paid in %s status", o.Status)
	}
	now := time.Now()
	old := o.Status
	o.Status = OrderStatusPaid
	o.PaymentStatus = PaymentStatusPaid
	if reference != "" {
		o.PaymentReference = reference
	}
	o.PaidAt = &now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderPaidEvent(o))
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old, o.Status))
	return nil
}

// MarkPaymentFailed records a failed payment attempt. The order stays
// pending so the customer can retry.
func (o *Order) MarkPaymentFailed() error {
	if o.Status != OrderStatusPendingPayment {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot fail payment for order in %s status", o.Status)
	}
	o.PaymentStatus = PaymentStatusFailed
	o.IncrementVersion()
	return nil
}

// StartPreparing marks the order as being picked
func (o *Order) StartPreparing() error {
	return o.transition(OrderStatusPreparing, "prepare")
}

// Dispatch marks the order as out for delivery
func (o *Order) Dispatch() error {
	if err := o.transition(OrderStatusOutForDelivery, "dispatch"); err != nil {
		return err
	}
	now := time.Now()
	o.DispatchedAt = &now
	return nil
}

// Deliver marks the order as delivered
func (o *Order) Deliver() error {
	if err := o.transition(OrderStatusDelivered, "deliver"); err != nil {
		return err
	}
	now := time.Now()
	o.DeliveredAt = &now
	return nil
}

// AdvanceTo applies an admin fulfilment status change
func (o *Order) AdvanceTo(target OrderStatus) error {
	switch target {
	case OrderStatusPreparing:
		return o.StartPreparing()
	case OrderStatusOutForDelivery:
		return o.Dispatch()
	case OrderStatusDelivered:
		return o.Deliver()
	case OrderStatusPaid, OrderStatusCancelled, OrderStatusRefunded:
		return shared.NewDomainErrorf("INVALID_STATE", "Status %s is set by payment or cancellation, not directly", target)
	default:
		return shared.NewDomainErrorf("INVALID_STATUS", "Unknown order status: %s", target)
	}
}

func (o *Order) transition(target OrderStatus, verb string) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot %s order in %s status", verb, o.Status)
	}
	old := o.Status
	o.Status = target
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old, target))
	return nil
}

// CanCustomerCancel reports whether the customer may still cancel the order
func (o *Order) CanCustomerCancel() bool {
	return o.Status == OrderStatusPendingPayment
}

// Cancel cancels the order. The caller restores stock and the slot, and
// refunds the payment when WasPaid is set on the raised event.
func (o *Order) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot cancel order in %s status", o.Status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	old := o.Status
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCancelledEvent(o, o.IsPaid()))
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, old, o.Status))
	return nil
}

// MarkRefunded records a provider refund. A cancelled order keeps its
// status and only its payment status changes.
func (o *Order) MarkRefunded() error {
	if o.PaymentStatus != PaymentStatusPaid {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot refund an order whose payment is %s", o.PaymentStatus)
	}
	now := time.Now()
	old := o.Status
	if o.Status != OrderStatusCancelled {
		if !o.Status.CanTransitionTo(OrderStatusRefunded) {
			return shared.NewDomainErrorf("INVALID_STATE", "Cannot refund order in %s status", o.Status)
		}
		o.Status = OrderStatusRefunded
	}
	o.PaymentStatus = PaymentStatusRefunded
	o.RefundedAt = &now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderRefundedEvent(o))
	if old != o.Status {
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, old, o.Status))
	}
	return nil
}

// IsPaid reports whether money has been captured and not refunded
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// recalculateTotals recomputes the totals from the items, discount and fee
func (o *Order) recalculateTotals() {
	totals := Quote(o.Lines(), o.Discount, o.DeliveryFee)
	o.Subtotal = totals.Subtotal
	o.Discount = totals.Discount
	o.DeliveryFee = totals.DeliveryFee
	o.Total = totals.Total
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateOrderNumber returns a number of the form GR-YYYYMMDD-XXXXXX
func GenerateOrderNumber(now time.Time) string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		copy(buf, uuid.New().String())
	}
	for i := range buf {
		buf[i] = orderNumberAlphabet[int(buf[i])%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("GR-%s-%s", now.UTC().Format("20060102"), buf)
}
