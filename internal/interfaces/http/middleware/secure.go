package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// The API only serves JSON, so the policy forbids everything a browser
// could render or frame
const (
	apiContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
	apiPermissionsPolicy     = "camera=(), geolocation=(), microphone=(), payment=()"
	hstsMaxAge               = 365 * 24 * 60 * 60
)

// Secure sets hardening headers on every response. Strict-Transport-Security
// is only sent when hsts is true, since a plain HTTP deployment would pin
// browsers to a scheme it cannot serve.
func Secure(hsts bool) gin.HandlerFunc {
	headers := [][2]string{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Content-Security-Policy", apiContentSecurityPolicy},
		{"Permissions-Policy", apiPermissionsPolicy},
		{"Cross-Origin-Resource-Policy", "same-site"},
	}
	if hsts {
		headers = append(headers, [2]string{"Strict-Transport-Security", "max-age=" + strconv.Itoa(hstsMaxAge) + "; includeSubDomains"})
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range headers {
			h.Set(kv[0], kv[1])
		}
		c.Next()
	}
}
