package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSConfig lists the cross-origin rules for the storefront and admin
// frontends. An empty AllowOrigins refuses every cross-origin request.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

const defaultPreflightMaxAge = 12 * time.Hour

// corsPolicy is a CORSConfig with its header values joined once
type corsPolicy struct {
	origins     map[string]struct{}
	anyOrigin   bool
	credentials bool
	headers     map[string]string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:     make(map[string]struct{}, len(cfg.AllowOrigins)),
		credentials: cfg.AllowCredentials,
		headers:     map[string]string{},
	}
	for _, o := range cfg.AllowOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			p.anyOrigin = true
			continue
		}
		if o != "" {
			p.origins[o] = struct{}{}
		}
	}

	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = defaultPreflightMaxAge
	}
	p.headers["Access-Control-Allow-Methods"] = strings.Join(cfg.AllowMethods, ", ")
	p.headers["Access-Control-Allow-Headers"] = strings.Join(cfg.AllowHeaders, ", ")
	p.headers["Access-Control-Max-Age"] = strconv.Itoa(int(maxAge.Seconds()))
	if len(cfg.ExposeHeaders) > 0 {
		p.headers["Access-Control-Expose-Headers"] = strings.Join(cfg.ExposeHeaders, ", ")
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or ""
func (p *corsPolicy) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	if p.anyOrigin {
		return "*"
	}
	return ""
}

func (p *corsPolicy) apply(h http.Header, allowed string) {
	h.Set("Access-Control-Allow-Origin", allowed)
	if p.credentials && allowed != "*" {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	for k, v := range p.headers {
		if v != "" {
			h.Set(k, v)
		}
	}
}

// CORSWithConfig answers preflight requests with 204 and decorates
// responses for allowed origins. Requests from other origins pass through
// without CORS headers so the browser blocks them.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		if allowed := policy.allow(c.GetHeader("Origin")); allowed != "" {
			policy.apply(h, allowed)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
