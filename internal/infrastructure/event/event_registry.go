package event

import (
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/identity"
	"github.com/grocer/backend/internal/domain/ordering"
)

// RegisterAllEvents registers every event the aggregates write to the outbox
func RegisterAllEvents(s *EventSerializer) {
	s.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	s.Register(catalog.EventTypeProductStatusChanged, &catalog.ProductStatusChangedEvent{})
	s.Register(catalog.EventTypeProductStockChanged, &catalog.ProductStockChangedEvent{})
	s.Register(catalog.EventTypeProductLowStock, &catalog.ProductLowStockEvent{})

	s.Register(ordering.EventTypeOrderPlaced, &ordering.OrderPlacedEvent{})
	s.Register(ordering.EventTypeOrderPaid, &ordering.OrderPaidEvent{})
	s.Register(ordering.EventTypeOrderStatusChanged, &ordering.OrderStatusChangedEvent{})
	s.Register(ordering.EventTypeOrderCancelled, &ordering.OrderCancelledEvent{})
	s.Register(ordering.EventTypeOrderRefunded, &ordering.OrderRefundedEvent{})

	s.Register(identity.EventTypeUserRegistered, &identity.UserRegisteredEvent{})
	s.Register(identity.EventTypeUserPasswordChanged, &identity.UserPasswordChangedEvent{})
	s.Register(identity.EventTypeUserStatusChanged, &identity.UserStatusChangedEvent{})
}
