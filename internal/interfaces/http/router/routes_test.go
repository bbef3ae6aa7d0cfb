package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/auth"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/grocer/backend/internal/infrastructure/telemetry"
	"github.com/grocer/backend/internal/interfaces/http/handler"
	"github.com/grocer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
)

type tokenTable map[string]*auth.Claims

func (t tokenTable) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token")
}

type upDB struct{}

func (upDB) PingContext(context.Context) error { return nil }

// Services are left nil; every request below is answered by middleware or
// by request validation before a service would be reached.
func testEngine(opts Options) *gin.Engine {
	h := Handlers{
		Auth:     handler.NewAuthHandler(nil),
		Product:  handler.NewProductHandler(nil),
		Import:   handler.NewProductImportHandler(nil),
		Category: handler.NewCategoryHandler(nil),
		Search:   handler.NewSearchHandler(nil),
		Delivery: handler.NewDeliveryHandler(nil, nil),
		Voucher:  handler.NewVoucherHandler(nil),
		Cart:     handler.NewCartHandler(nil),
		Order:    handler.NewOrderHandler(nil),
		User:     handler.NewUserHandler(nil),
		Upload:   handler.NewUploadHandler(nil),
		Admin:    handler.NewAdminHandler(nil, nil),
		Webhook:  handler.NewStripeWebhookHandler(nil),
		Health:   handler.NewHealthHandler(upDB{}, "test"),
	}
	if opts.Authenticator == nil {
		opts.Authenticator = tokenTable{
			"customer": {UserID: uuid.NewString(), Role: "customer", TokenType: auth.TokenTypeAccess},
			"admin":    {UserID: uuid.NewString(), Role: middleware.RoleAdmin, TokenType: auth.TokenTypeAccess},
		}
	}
	return NewEngine(h, opts)
}

func request(engine http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewEngine_AccessControl(t *testing.T) {
	engine := testEngine(Options{})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"cart needs a token", http.MethodGet, "/api/v1/cart", "", http.StatusUnauthorized},
		{"orders reject unknown tokens", http.MethodGet, "/api/v1/orders", "forged", http.StatusUnauthorized},
		{"customer reaches order handler", http.MethodGet, "/api/v1/orders/not-a-uuid", "customer", http.StatusBadRequest},
		{"admin area needs a token", http.MethodGet, "/api/v1/admin/products", "", http.StatusUnauthorized},
		{"customer is not admin", http.MethodGet, "/api/v1/admin/products/not-a-uuid", "customer", http.StatusForbidden},
		{"admin reaches product handler", http.MethodGet, "/api/v1/admin/products/not-a-uuid", "admin", http.StatusBadRequest},
		{"import needs a file", http.MethodPost, "/api/v1/admin/products/import", "admin", http.StatusBadRequest},
		{"admin outbox retry", http.MethodPost, "/api/v1/admin/outbox/not-a-uuid/retry", "admin", http.StatusBadRequest},
		{"session routes need a token", http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"webhook without signature", http.MethodPost, "/api/v1/webhooks/stripe", "", http.StatusBadRequest},
		{"public product detail", http.MethodGet, "/api/v1/products/not-a-uuid", "", http.StatusBadRequest},
		{"swagger disabled", http.MethodGet, "/swagger/index.html", "", http.StatusNotFound},
		{"metrics disabled", http.MethodGet, "/metrics", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(engine, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestNewEngine_AuthRateLimit(t *testing.T) {
	engine := testEngine(Options{AuthLimiter: middleware.NewRateLimiter(1, time.Minute)})

	// An empty body fails validation, so the first call never reaches the service.
	assert.Equal(t, http.StatusBadRequest, request(engine, http.MethodPost, "/api/v1/auth/login", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(engine, http.MethodPost, "/api/v1/auth/login", "").Code)

	// Session routes are not counted against the login budget.
	assert.Equal(t, http.StatusUnauthorized, request(engine, http.MethodGet, "/api/v1/auth/me", "").Code)
}

func TestNewEngine_Metrics(t *testing.T) {
	engine := testEngine(Options{
		HTTP:    config.HTTPConfig{MetricsEnabled: true},
		Metrics: telemetry.NewHTTPMetrics(),
	})

	request(engine, http.MethodGet, "/api/v1/cart", "")
	w := request(engine, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestNewEngine_SwaggerRequiresAdmin(t *testing.T) {
	engine := testEngine(Options{Swagger: config.SwaggerConfig{Enabled: true, RequireAuth: true}})

	assert.Equal(t, http.StatusUnauthorized, request(engine, http.MethodGet, "/swagger/index.html", "").Code)
	assert.Equal(t, http.StatusForbidden, request(engine, http.MethodGet, "/swagger/index.html", "customer").Code)
	assert.NotEqual(t, http.StatusForbidden, request(engine, http.MethodGet, "/swagger/index.html", "admin").Code)
}

func TestNewEngine_RouteTable(t *testing.T) {
	engine := testEngine(Options{})
	mounted := map[string]bool{}
	for _, r := range engine.Routes() {
		mounted[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /health",
		"GET /api/v1/products",
		"GET /api/v1/products/:id",
		"GET /api/v1/products/slug/:slug",
		"GET /api/v1/categories",
		"GET /api/v1/categories/:id",
		"GET /api/v1/search",
		"GET /api/v1/search/suggestions",
		"GET /api/v1/delivery-zones",
		"GET /api/v1/delivery-zones/lookup",
		"GET /api/v1/delivery-slots",
		"POST /api/v1/vouchers/validate",
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"PUT /api/v1/auth/password",
		"POST /api/v1/webhooks/stripe",
		"GET /api/v1/cart",
		"DELETE /api/v1/cart",
		"POST /api/v1/cart/items",
		"PUT /api/v1/cart/items/:product_id",
		"DELETE /api/v1/cart/items/:product_id",
		"POST /api/v1/cart/voucher",
		"DELETE /api/v1/cart/voucher",
		"PUT /api/v1/cart/postcode",
		"POST /api/v1/orders",
		"GET /api/v1/orders",
		"GET /api/v1/orders/:id",
		"POST /api/v1/orders/:id/cancel",
		"POST /api/v1/orders/:id/payment",
		"POST /api/v1/admin/products",
		"POST /api/v1/admin/products/import",
		"POST /api/v1/admin/products/:id/stock",
		"GET /api/v1/admin/products/low-stock",
		"DELETE /api/v1/admin/categories/:id",
		"PUT /api/v1/admin/orders/:id/status",
		"GET /api/v1/admin/orders/:id/invoice",
		"POST /api/v1/admin/delivery-zones",
		"POST /api/v1/admin/delivery-slots/generate",
		"GET /api/v1/admin/vouchers/:id/usages",
		"POST /api/v1/admin/users/:id/deactivate",
		"POST /api/v1/admin/upload/image",
		"POST /api/v1/admin/upload/presign",
		"GET /api/v1/admin/analytics/dashboard",
		"GET /api/v1/admin/outbox/dead",
		"POST /api/v1/admin/outbox/:id/retry",
	}
	for _, route := range want {
		assert.True(t, mounted[route], "missing route %s", route)
	}
}
