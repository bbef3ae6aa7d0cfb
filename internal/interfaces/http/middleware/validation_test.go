package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	Quantity int `json:"quantity" binding:"min=1"`
}

type signupInput struct {
	Email string      `json:"email" binding:"required,email"`
	Name  string      `json:"name" binding:"required,min=2"`
	Lines []lineInput `json:"lines" binding:"omitempty,dive"`
}

func bindRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req signupInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp dto.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	rec, resp := postJSON(bindRouter(), `{"email":"not-an-email","name":"A","lines":[{"quantity":0}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid email format", fields["email"])
	assert.Equal(t, "Must be at least 2 characters", fields["name"])
	assert.Equal(t, "Must be at least 1", fields["lines[0].quantity"])
}

func TestHandleValidationError_MalformedBodies(t *testing.T) {
	router := bindRouter()

	rec, resp := postJSON(router, `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)

	_, resp = postJSON(router, ``)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)

	_, resp = postJSON(router, `{"email":"a@b.co","name":42}`)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "name", resp.Error.Details[0].Field)
}

func TestHandleValidationError_Valid(t *testing.T) {
	rec, _ := postJSON(bindRouter(), `{"email":"ada@example.com","name":"Ada"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
