package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate. The delivery
// address is flattened into ship_* columns.
type OrderModel struct {
	AggregateModel
	OrderNumber      string                 `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	Subtotal         decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	Discount         decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	DeliveryFee      decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	Total            decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	VoucherID        *uuid.UUID             `gorm:"type:uuid;index"`
	VoucherCode      string                 `gorm:"type:varchar(32)"`
	ZoneID           uuid.UUID              `gorm:"type:uuid;not null"`
	SlotID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	SlotStart        time.Time              `gorm:"not null"`
	SlotEnd          time.Time              `gorm:"not null"`
	ShipName         string                 `gorm:"type:varchar(100);not null"`
	ShipLine1        string                 `gorm:"type:varchar(200);not null"`
	ShipLine2        string                 `gorm:"type:varchar(200)"`
	ShipCity         string                 `gorm:"type:varchar(100);not null"`
	ShipPostcode     string                 `gorm:"type:varchar(10);not null"`
	ShipPhone        string                 `gorm:"type:varchar(30)"`
	Notes            string                 `gorm:"type:text"`
	Status           ordering.OrderStatus   `gorm:"type:varchar(30);not null;index"`
	PaymentStatus    ordering.PaymentStatus `gorm:"type:varchar(20);not null"`
	PaymentReference string                 `gorm:"type:varchar(100);index"`
	IdempotencyKey   string                 `gorm:"type:varchar(100);index"`
	PaidAt           *time.Time
	DispatchedAt     *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(255)"`
	RefundedAt       *time.Time
	Items            []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *ordering.Order {
	items := make([]ordering.OrderItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	return &ordering.Order{
		BaseAggregateRoot: m.root(),
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		Items:             items,
		Subtotal:          m.Subtotal,
		Discount:          m.Discount,
		DeliveryFee:       m.DeliveryFee,
		Total:             m.Total,
		VoucherID:         m.VoucherID,
		VoucherCode:       m.VoucherCode,
		ZoneID:            m.ZoneID,
		SlotID:            m.SlotID,
		SlotStart:         m.SlotStart,
		SlotEnd:           m.SlotEnd,
		Address: valueobject.Address{
			RecipientName: m.ShipName,
			Line1:         m.ShipLine1,
			Line2:         m.ShipLine2,
			City:          m.ShipCity,
			Postcode:      m.ShipPostcode,
			Phone:         m.ShipPhone,
		},
		Notes:            m.Notes,
		Status:           m.Status,
		PaymentStatus:    m.PaymentStatus,
		PaymentReference: m.PaymentReference,
		IdempotencyKey:   m.IdempotencyKey,
		PaidAt:           m.PaidAt,
		DispatchedAt:     m.DispatchedAt,
		DeliveredAt:      m.DeliveredAt,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
		RefundedAt:       m.RefundedAt,
	}
}

// OrderModelFromDomain creates a persistence model from a domain Order,
// including its line items
func OrderModelFromDomain(o *ordering.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:      o.OrderNumber,
		UserID:           o.UserID,
		Subtotal:         o.Subtotal,
		Discount:         o.Discount,
		DeliveryFee:      o.DeliveryFee,
		Total:            o.Total,
		VoucherID:        o.VoucherID,
		VoucherCode:      o.VoucherCode,
		ZoneID:           o.ZoneID,
		SlotID:           o.SlotID,
		SlotStart:        o.SlotStart,
		SlotEnd:          o.SlotEnd,
		ShipName:         o.Address.RecipientName,
		ShipLine1:        o.Address.Line1,
		ShipLine2:        o.Address.Line2,
		ShipCity:         o.Address.City,
		ShipPostcode:     o.Address.Postcode,
		ShipPhone:        o.Address.Phone,
		Notes:            o.Notes,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		PaymentReference: o.PaymentReference,
		IdempotencyKey:   o.IdempotencyKey,
		PaidAt:           o.PaidAt,
		DispatchedAt:     o.DispatchedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		RefundedAt:       o.RefundedAt,
	}
	m.AggregateModel = newAggregateModel(o.BaseAggregateRoot)
	m.Items = make([]OrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i] = OrderItemModelFromDomain(o.ID, &o.Items[i])
	}
	return m
}

// OrderItemModel is a priced line snapshot belonging to an order
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	SKU         string          `gorm:"type:varchar(50);not null"`
	Unit        string          `gorm:"type:varchar(10);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() ordering.OrderItem {
	return ordering.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		SKU:         m.SKU,
		Unit:        m.Unit,
		UnitPrice:   m.UnitPrice,
		Quantity:    m.Quantity,
		LineTotal:   m.LineTotal,
	}
}

// OrderItemModelFromDomain creates a persistence model for one order line
func OrderItemModelFromDomain(orderID uuid.UUID, it *ordering.OrderItem) OrderItemModel {
	return OrderItemModel{
		ID:          it.ID,
		OrderID:     orderID,
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		SKU:         it.SKU,
		Unit:        it.Unit,
		UnitPrice:   it.UnitPrice,
		Quantity:    it.Quantity,
		LineTotal:   it.LineTotal,
	}
}

// AllModels lists every model in migration order. Tests use it with
// AutoMigrate; production schemas come from the SQL migrations.
func AllModels() []any {
	return []any{
		&UserModel{},
		&CategoryModel{},
		&ProductModel{},
		&DeliveryZoneModel{},
		&DeliverySlotModel{},
		&VoucherModel{},
		&VoucherUsageModel{},
		&OrderModel{},
		&OrderItemModel{},
		&OutboxEntryModel{},
	}
}
