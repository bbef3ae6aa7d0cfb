package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain error codes such as SLOT_FULL are
// passed to clients unchanged; these cover failures that happen before a
// request reaches the application layer.
const (
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRateLimited   = "RATE_LIMIT_EXCEEDED"
	ErrCodeTooLarge      = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable   = "SERVICE_UNAVAILABLE"
	ErrCodeInvalidToken  = "TOKEN_INVALID"
	ErrCodeTokenExpired  = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked  = "TOKEN_REVOKED"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidState  = "INVALID_STATE"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Codes that are
// not listed fall back to the prefix and suffix rules in GetHTTPStatus.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,

	// Authentication
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	ErrCodeInvalidToken:   http.StatusUnauthorized,
	ErrCodeTokenExpired:   http.StatusUnauthorized,
	ErrCodeTokenRevoked:   http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	"ACCOUNT_DEACTIVATED": http.StatusForbidden,
	"USER_LOCKED":         http.StatusLocked,

	// Resources
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeConflict:        http.StatusConflict,
	"EMAIL_TAKEN":          http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"CART_CONFLICT":        http.StatusConflict,

	// Checkout
	"IDEMPOTENCY_KEY_REUSED": http.StatusConflict,
	"PAYMENT_UNAVAILABLE":    http.StatusServiceUnavailable,
	"INVOICE_UNAVAILABLE":    http.StatusServiceUnavailable,

	// Webhooks
	"INVALID_SIGNATURE": http.StatusBadRequest,

	// Uploads
	"FILE_TOO_LARGE":        http.StatusRequestEntityTooLarge,
	"UNSUPPORTED_FILE_TYPE": http.StatusUnsupportedMediaType,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// INVALID_* codes are bad input, *_NOT_FOUND codes are missing resources and
// *_IN_USE codes are conflicts. Any other domain code is a business rule
// violation and maps to 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_IN_USE"):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
