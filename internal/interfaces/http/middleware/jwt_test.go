package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/auth"
	"github.com/grocer/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAuthenticator accepts the tokens it knows
type stubAuthenticator struct {
	tokens map[string]*auth.Claims
	err    error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if claims, ok := s.tokens[token]; ok {
		return claims, nil
	}
	return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid token")
}

func newStub() (stubAuthenticator, *auth.Claims, *auth.Claims) {
	customer := &auth.Claims{UserID: uuid.NewString(), Email: "ada@example.com", Role: "customer"}
	admin := &auth.Claims{UserID: uuid.NewString(), Email: "ops@example.com", Role: RoleAdmin}
	return stubAuthenticator{tokens: map[string]*auth.Claims{
		"customer-token": customer,
		"admin-token":    admin,
	}}, customer, admin
}

func serve(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	stub, customer, _ := newStub()

	router := gin.New()
	router.Use(JWTAuthMiddleware(stub, nil))
	router.GET("/test", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, customer.UserID, claims.UserID)

		id, ok := GetJWTUserID(c)
		assert.True(t, ok)
		assert.Equal(t, customer.UserID, id.String())
		assert.False(t, IsAdmin(c))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, "customer-token").Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	stub, _, _ := newStub()

	router := gin.New()
	router.Use(JWTAuthMiddleware(stub, nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, rec).Code)

	rec = serve(router, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddleware_StoreFailure(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(stubAuthenticator{err: errors.New("redis down")}, nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, "customer-token")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, dto.ErrCodeUnavailable, decodeError(t, rec).Code)
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	stub, _, _ := newStub()

	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{Authenticator: stub, SkipPaths: []string{"/test"}}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, "").Code)
}

func TestRequireAdmin(t *testing.T) {
	stub, _, admin := newStub()

	router := gin.New()
	router.Use(JWTAuthMiddleware(stub, nil), RequireAdmin())
	router.GET("/test", func(c *gin.Context) {
		assert.True(t, IsAdmin(c))
		assert.Equal(t, admin.UserID, c.GetString(JWTUserIDKey))
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, "admin-token").Code)

	rec := serve(router, "customer-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, rec).Code)
}

func TestRequireAdmin_WithoutAuthentication(t *testing.T) {
	router := gin.New()
	router.Use(RequireAdmin())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(router, "").Code)
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	stub, customer, _ := newStub()

	router := gin.New()
	router.Use(OptionalJWTAuthMiddleware(stub))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(JWTUserIDKey))
	})

	assert.Equal(t, customer.UserID, serve(router, "customer-token").Body.String())
	assert.Empty(t, serve(router, "forged").Body.String())
	assert.Empty(t, serve(router, "").Body.String())
}
