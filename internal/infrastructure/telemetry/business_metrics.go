package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName              = "github.com/grocer/backend"
	defaultMetricsInterval = 60 * time.Second
)

// BusinessMetrics records storefront activity through the OpenTelemetry
// meter. Instruments are no-ops until a MeterProvider is installed.
type BusinessMetrics struct {
	ordersPlaced    metric.Int64Counter
	orderValue      metric.Float64Histogram
	ordersCancelled metric.Int64Counter
	payments        metric.Int64Counter
	checkoutErrors  metric.Int64Counter
	lowStockAlerts  metric.Int64Counter
	voucherRedeemed metric.Int64Counter
}

// NewBusinessMetrics creates the instruments on the global meter provider
func NewBusinessMetrics() (*BusinessMetrics, error) {
	return NewBusinessMetricsWithMeter(otel.GetMeterProvider().Meter(meterName))
}

// NewBusinessMetricsWithMeter creates the instruments on meter
func NewBusinessMetricsWithMeter(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)
	if m.ordersPlaced, err = meter.Int64Counter("grocer.orders.placed",
		metric.WithDescription("Orders placed at checkout"), metric.WithUnit("{order}")); err != nil {
		return nil, err
	}
	if m.orderValue, err = meter.Float64Histogram("grocer.orders.value",
		metric.WithDescription("Order total at checkout"), metric.WithUnit("{currency}"),
		metric.WithExplicitBucketBoundaries(10, 25, 50, 75, 100, 150, 250, 500)); err != nil {
		return nil, err
	}
	if m.ordersCancelled, err = meter.Int64Counter("grocer.orders.cancelled",
		metric.WithDescription("Orders cancelled"), metric.WithUnit("{order}")); err != nil {
		return nil, err
	}
	if m.payments, err = meter.Int64Counter("grocer.payments",
		metric.WithDescription("Payment notifications by outcome"), metric.WithUnit("{payment}")); err != nil {
		return nil, err
	}
	if m.checkoutErrors, err = meter.Int64Counter("grocer.checkout.errors",
		metric.WithDescription("Rejected checkouts by error code"), metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if m.lowStockAlerts, err = meter.Int64Counter("grocer.catalog.low_stock_alerts",
		metric.WithDescription("Products that dropped to their low-stock threshold"), metric.WithUnit("{alert}")); err != nil {
		return nil, err
	}
	if m.voucherRedeemed, err = meter.Int64Counter("grocer.vouchers.redeemed",
		metric.WithDescription("Voucher redemptions"), metric.WithUnit("{redemption}")); err != nil {
		return nil, err
	}
	return &m, nil
}

// OrderPlaced records a successful checkout
func (m *BusinessMetrics) OrderPlaced(ctx context.Context, total decimal.Decimal, zone string) {
	attrs := metric.WithAttributes(attribute.String("zone", zone))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderValue.Record(ctx, total.InexactFloat64(), attrs)
}

// OrderCancelled records a cancellation by reason (customer, admin, expired)
func (m *BusinessMetrics) OrderCancelled(ctx context.Context, reason string) {
	m.ordersCancelled.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// PaymentEvent records a payment notification outcome
func (m *BusinessMetrics) PaymentEvent(ctx context.Context, outcome string) {
	m.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// CheckoutRejected records a checkout that failed with a domain error code
func (m *BusinessMetrics) CheckoutRejected(ctx context.Context, code string) {
	m.checkoutErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// LowStock records a low-stock alert for a product
func (m *BusinessMetrics) LowStock(ctx context.Context, sku string) {
	m.lowStockAlerts.Add(ctx, 1, metric.WithAttributes(attribute.String("sku", sku)))
}

// VoucherRedeemed records a voucher use
func (m *BusinessMetrics) VoucherRedeemed(ctx context.Context, code string) {
	m.voucherRedeemed.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}
