package catalog

import (
	"context"
	"fmt"

	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LowStockRecorder counts low stock alerts, e.g. as a metric
type LowStockRecorder interface {
	LowStock(ctx context.Context, sku string)
}

// LowStockHandler reacts to ProductLowStock events raised when a product
// crosses its alert threshold
type LowStockHandler struct {
	logger   *zap.Logger
	recorder LowStockRecorder
}

// NewLowStockHandler creates a new handler for low stock events
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{logger: logger}
}

// WithRecorder sets the alert recorder
func (h *LowStockHandler) WithRecorder(recorder LowStockRecorder) *LowStockHandler {
	h.recorder = recorder
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductLowStock}
}

// Handle logs the alert and records it
func (h *LowStockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	low, ok := event.(*catalog.ProductLowStockEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			catalog.EventTypeProductLowStock, event.EventType())
	}

	h.logger.Warn("product stock low",
		zap.String("product_id", low.ProductID.String()),
		zap.String("sku", low.SKU),
		zap.String("name", low.Name),
		zap.Int("stock", low.Stock),
		zap.Int("threshold", low.Threshold),
	)
	if h.recorder != nil {
		h.recorder.LowStock(ctx, low.SKU)
	}
	return nil
}

var _ shared.EventHandler = (*LowStockHandler)(nil)
