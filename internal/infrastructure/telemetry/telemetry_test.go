package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestStart_Disabled(t *testing.T) {
	p, err := Start(context.Background(), config.TelemetryConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Equal(t, zapcore.NewNopCore(), p.ZapCore("grocer", zapcore.InfoLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestStart_ProfilingRequiresAddress(t *testing.T) {
	_, err := Start(context.Background(), config.TelemetryConfig{ProfilingEnabled: true}, zap.NewNop())
	assert.ErrorContains(t, err, "pyroscope address")
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), Sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), Sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), Sampler(0.25).Description())
}

func TestStartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), "checkout.place_order")
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, errors.New("slot full"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "checkout.place_order", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Empty(t, TraceID(context.Background()))
}

func TestBusinessMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewBusinessMetricsWithMeter(provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()

	m.OrderPlaced(ctx, decimal.RequireFromString("42.50"), "central")
	m.OrderPlaced(ctx, decimal.RequireFromString("10"), "central")
	m.LowStock(ctx, "APL-001")
	m.CheckoutRejected(ctx, "SLOT_FULL")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if s, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range s.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["grocer.orders.placed"])
	assert.Equal(t, int64(1), sums["grocer.catalog.low_stock_alerts"])
	assert.Equal(t, int64(1), sums["grocer.checkout.errors"])
}

func TestHTTPMetrics(t *testing.T) {
	m := NewHTTPMetrics()

	done := m.Begin()
	done(http.MethodGet, "/api/v1/products", http.StatusOK, 1024)
	done = m.Begin()
	done(http.MethodGet, "", http.StatusNotFound, 0)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `grocer_http_requests_total{method="GET",route="/api/v1/products",status="2xx"} 1`)
	assert.Contains(t, text, `grocer_http_requests_total{method="GET",route="unmatched",status="4xx"} 1`)
	assert.Contains(t, text, "grocer_http_requests_in_flight 0")
	assert.Contains(t, text, "go_goroutines")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(301))
	assert.Equal(t, "4xx", statusClass(422))
	assert.Equal(t, "5xx", statusClass(503))
}
