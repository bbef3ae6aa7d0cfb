package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func call(engine http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func text(body string, status int) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(status, body) }
}

func TestAPI_MountsAreasUnderVersion(t *testing.T) {
	engine := gin.New()
	api := NewAPI("v2").Add(
		NewArea("/products").GET("", text("products", http.StatusOK)),
		NewArea("/orders").POST("", text("placed", http.StatusCreated)),
	)
	api.Mount(engine)

	assert.Equal(t, "/api/v2", api.BasePath())
	w := call(engine, http.MethodGet, "/api/v2/products")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", w.Body.String())
	assert.Equal(t, http.StatusCreated, call(engine, http.MethodPost, "/api/v2/orders").Code)
	assert.Equal(t, http.StatusNotFound, call(engine, http.MethodGet, "/products").Code)
}

func TestAPI_UseAppliesToVersionedRoutesOnly(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", text("ok", http.StatusOK))

	NewAPI("v1").
		Use(func(c *gin.Context) {
			c.Header("X-Api", "yes")
			c.Next()
		}).
		Add(NewArea("/cart").GET("", text("cart", http.StatusOK))).
		Mount(engine)

	assert.Equal(t, "yes", call(engine, http.MethodGet, "/api/v1/cart").Header().Get("X-Api"))
	assert.Empty(t, call(engine, http.MethodGet, "/health").Header().Get("X-Api"))
}

func TestArea_SubMiddlewareIsScoped(t *testing.T) {
	engine := gin.New()
	auth := NewArea("/auth")
	auth.Sub("").POST("/login", text("login", http.StatusOK))
	auth.Sub("").Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusUnauthorized)
	}).GET("/me", text("me", http.StatusOK))
	NewAPI("v1").Add(auth).Mount(engine)

	assert.Equal(t, http.StatusOK, call(engine, http.MethodPost, "/api/v1/auth/login").Code)
	assert.Equal(t, http.StatusUnauthorized, call(engine, http.MethodGet, "/api/v1/auth/me").Code)
}

func TestArea_Routes(t *testing.T) {
	vouchers := NewArea("/vouchers").
		GET("/:id", text("get", http.StatusOK)).
		POST("", text("create", http.StatusCreated)).
		DELETE("/:id", text("", http.StatusNoContent))
	vouchers.Sub("/:id/usages").GET("", text("usages", http.StatusOK))

	assert.Equal(t, []string{
		"DELETE /api/v1/vouchers/:id",
		"GET /api/v1/vouchers/:id",
		"GET /api/v1/vouchers/:id/usages",
		"POST /api/v1/vouchers",
	}, vouchers.Routes("/api/v1"))
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/api/v1", joinPath("/api/v1", ""))
	assert.Equal(t, "/api/v1/cart", joinPath("/api/v1", "/cart"))
	assert.Equal(t, "/api/v1/cart/", joinPath("/api/v1", "/cart/"))
}
