package router

import (
	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/grocer/backend/internal/infrastructure/logger"
	"github.com/grocer/backend/internal/infrastructure/telemetry"
	"github.com/grocer/backend/internal/interfaces/http/handler"
	"github.com/grocer/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

var infraPaths = []string{"/health", "/metrics"}

// Handlers bundles every HTTP handler mounted by the API
type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Import   *handler.ProductImportHandler
	Category *handler.CategoryHandler
	Search   *handler.SearchHandler
	Delivery *handler.DeliveryHandler
	Voucher  *handler.VoucherHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	User     *handler.UserHandler
	Upload   *handler.UploadHandler
	Admin    *handler.AdminHandler
	Webhook  *handler.StripeWebhookHandler
	Health   *handler.HealthHandler
}

// Options carries the middleware dependencies of the engine
type Options struct {
	Logger        *zap.Logger
	Authenticator middleware.Authenticator
	HTTP          config.HTTPConfig
	Swagger       config.SwaggerConfig
	Telemetry     config.TelemetryConfig
	Metrics       *telemetry.HTTPMetrics

	// Limiters are created by the caller so it can run their cleanup loops.
	// A nil limiter disables the corresponding limit.
	APILimiter  *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the global middleware chain,
// infrastructure endpoints and all versioned API routes.
func NewEngine(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = opts.Telemetry.ProfilingEnabled

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log, infraPaths...),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: opts.Telemetry.ServiceName,
			Enabled:     opts.Telemetry.Enabled,
			SkipPaths:   infraPaths,
		}),
		middleware.SpanEnricher(),
		middleware.HTTPMetrics(opts.Metrics, infraPaths...),
		middleware.Profiling(profiling),
		middleware.Secure(opts.HTTP.HSTSEnabled),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     opts.HTTP.CORSAllowOrigins,
			AllowMethods:     opts.HTTP.CORSAllowMethods,
			AllowHeaders:     opts.HTTP.CORSAllowHeaders,
			ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
		}),
	)
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	registerInfra(engine, h, opts)

	api := NewAPI("v1")
	if opts.APILimiter != nil {
		api.Use(middleware.RateLimit(opts.APILimiter))
	}

	requireAuth := middleware.JWTAuthMiddleware(opts.Authenticator, log)
	optionalAuth := middleware.OptionalJWTAuthMiddleware(opts.Authenticator)

	api.Add(
		authRoutes(h.Auth, requireAuth, opts.AuthLimiter),
		catalogRoutes(h),
		deliveryRoutes(h.Delivery),
		NewArea("/vouchers").POST("/validate", optionalAuth, h.Voucher.Validate),
		NewArea("/webhooks").POST("/stripe", h.Webhook.HandleStripeWebhook),
		cartRoutes(h.Cart).Use(requireAuth),
		orderRoutes(h.Order).Use(requireAuth),
		adminRoutes(h).Use(requireAuth, middleware.RequireAdmin()),
	).Mount(engine)
	log.Debug("API routes mounted", zap.String("base", api.BasePath()), zap.Strings("routes", api.Routes()))

	return engine
}

func registerInfra(engine *gin.Engine, h Handlers, opts Options) {
	engine.GET("/health", h.Health.Health)

	if opts.HTTP.MetricsEnabled && opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	if opts.Swagger.Enabled {
		chain := []gin.HandlerFunc{middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     opts.Swagger.Enabled,
			RequireAuth: opts.Swagger.RequireAuth,
			AllowedIPs:  opts.Swagger.AllowedIPs,
		})}
		if opts.Swagger.RequireAuth {
			chain = append(chain, middleware.JWTAuthMiddleware(opts.Authenticator, opts.Logger), middleware.RequireAdmin())
		}
		chain = append(chain, ginSwagger.WrapHandler(swaggerFiles.Handler))
		engine.GET("/swagger/*any", chain...)
	}
}

func authRoutes(h *handler.AuthHandler, requireAuth gin.HandlerFunc, limiter *middleware.RateLimiter) *Area {
	g := NewArea("/auth")

	public := g.Sub("")
	if limiter != nil {
		public.Use(middleware.RateLimitByKey(limiter, func(c *gin.Context) string {
			return "auth:" + c.ClientIP()
		}))
	}
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.Refresh)

	g.Sub("").Use(requireAuth).
		POST("/logout", h.Logout).
		GET("/me", h.Me).
		PUT("/password", h.ChangePassword)
	return g
}

func catalogRoutes(h Handlers) *Area {
	g := NewArea("")
	g.Sub("/products").
		GET("", h.Product.List).
		GET("/slug/:slug", h.Product.GetBySlug).
		GET("/:id", h.Product.Get)
	g.Sub("/categories").
		GET("", h.Category.List).
		GET("/:id", h.Category.Get)
	g.Sub("/search").
		GET("", h.Search.Search).
		GET("/suggestions", h.Search.Suggest)
	return g
}

func deliveryRoutes(h *handler.DeliveryHandler) *Area {
	g := NewArea("")
	g.Sub("/delivery-zones").
		GET("", h.ListZones).
		GET("/lookup", h.LookupZone)
	g.Sub("/delivery-slots").
		GET("", h.ListSlots)
	return g
}

func cartRoutes(h *handler.CartHandler) *Area {
	return NewArea("/cart").
		GET("", h.Get).
		DELETE("", h.Clear).
		POST("/items", h.AddItem).
		PUT("/items/:product_id", h.SetQuantity).
		DELETE("/items/:product_id", h.RemoveItem).
		POST("/voucher", h.ApplyVoucher).
		DELETE("/voucher", h.RemoveVoucher).
		PUT("/postcode", h.SetPostcode)
}

func orderRoutes(h *handler.OrderHandler) *Area {
	return NewArea("/orders").
		POST("", h.Checkout).
		GET("", h.ListMine).
		GET("/:id", h.Get).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/payment", h.RetryPayment)
}

func adminRoutes(h Handlers) *Area {
	g := NewArea("/admin")

	g.Sub("/products").
		GET("", h.Product.AdminList).
		GET("/low-stock", h.Product.LowStock).
		GET("/:id", h.Product.AdminGet).
		POST("", h.Product.Create).
		POST("/import", h.Import.Import).
		PUT("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete).
		POST("/:id/stock", h.Product.AdjustStock).
		POST("/:id/activate", h.Product.Activate).
		POST("/:id/deactivate", h.Product.Deactivate)

	g.Sub("/categories").
		GET("", h.Category.AdminList).
		GET("/:id", h.Category.AdminGet).
		POST("", h.Category.Create).
		PUT("/:id", h.Category.Update).
		DELETE("/:id", h.Category.Delete)

	// Get and Cancel see the admin role through the request actor.
	g.Sub("/orders").
		GET("", h.Order.AdminList).
		GET("/:id", h.Order.Get).
		PUT("/:id/status", h.Order.AdvanceStatus).
		POST("/:id/cancel", h.Order.Cancel).
		GET("/:id/invoice", h.Order.Invoice)

	g.Sub("/delivery-zones").
		GET("", h.Delivery.AdminListZones).
		GET("/:id", h.Delivery.GetZone).
		POST("", h.Delivery.CreateZone).
		PUT("/:id", h.Delivery.UpdateZone).
		DELETE("/:id", h.Delivery.DeleteZone)

	g.Sub("/delivery-slots").
		GET("", h.Delivery.AdminListSlots).
		POST("/generate", h.Delivery.GenerateSlots).
		GET("/:id", h.Delivery.GetSlot).
		POST("", h.Delivery.CreateSlot).
		PUT("/:id", h.Delivery.UpdateSlot).
		DELETE("/:id", h.Delivery.DeleteSlot)

	g.Sub("/vouchers").
		GET("", h.Voucher.List).
		GET("/:id", h.Voucher.Get).
		GET("/:id/usages", h.Voucher.Usages).
		POST("", h.Voucher.Create).
		PUT("/:id", h.Voucher.Update).
		DELETE("/:id", h.Voucher.Delete).
		POST("/:id/activate", h.Voucher.Activate).
		POST("/:id/deactivate", h.Voucher.Deactivate)

	g.Sub("/users").
		GET("", h.User.List).
		GET("/:id", h.User.Get).
		POST("/:id/activate", h.User.Activate).
		POST("/:id/deactivate", h.User.Deactivate)

	g.Sub("/upload").
		POST("/image", h.Upload.UploadImage).
		POST("/presign", h.Upload.Presign).
		DELETE("", h.Upload.Delete)

	g.Sub("/analytics").
		GET("/dashboard", h.Admin.Dashboard)

	g.Sub("/outbox").
		GET("/dead", h.Admin.ListDeadLetters).
		POST("/dead/retry", h.Admin.RetryAllDeadLetters).
		GET("/stats", h.Admin.OutboxStats).
		GET("/:id", h.Admin.GetOutboxEntry).
		POST("/:id/retry", h.Admin.RetryOutboxEntry)

	return g
}
