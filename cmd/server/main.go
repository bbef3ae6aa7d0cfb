package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/grocer/backend/internal/infrastructure/logger"
	"github.com/grocer/backend/internal/infrastructure/persistence"
	"github.com/grocer/backend/internal/infrastructure/telemetry"
	"github.com/grocer/backend/internal/interfaces/http/middleware"
	"github.com/grocer/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/grocer/backend/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Grocer API
//	@version		1.0
//	@description	Online grocery storefront and back office: catalog, carts, delivery slots, vouchers, checkout and order fulfilment.

//	@contact.name	Grocer Engineering
//	@contact.email	engineering@grocer.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	bootLog := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})

	telemetry.ServiceVersion = version
	providers, err := telemetry.Start(context.Background(), cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to start telemetry", zap.Error(err))
	}

	// Re-create the logger so records are also exported over OTLP when enabled
	log := logger.New(
		logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output},
		providers.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)),
	).With(zap.String("service", cfg.App.Name))
	defer func() { _ = log.Sync() }()

	log.Info("Starting Grocer backend",
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access connection pool", zap.Error(err))
	}
	log.Info("Database connected")

	httpMetrics := telemetry.NewHTTPMetrics()
	if err := httpMetrics.RegisterDB(sqlDB); err != nil {
		log.Warn("Connection pool metrics unavailable", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, db, log)
	if err != nil {
		log.Fatal("Failed to initialise application", zap.Error(err))
	}

	if err := app.start(ctx); err != nil {
		log.Fatal("Failed to start background workers", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	opts := router.Options{
		Logger:        log,
		Authenticator: app.authService,
		HTTP:          cfg.HTTP,
		Swagger:       cfg.Swagger,
		Telemetry:     cfg.Telemetry,
		Metrics:       httpMetrics,
	}
	limiterStop := make(chan struct{})
	if cfg.HTTP.RateLimitEnabled {
		opts.APILimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go opts.APILimiter.RunCleanup(limiterStop)
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		opts.AuthLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		go opts.AuthLimiter.RunCleanup(limiterStop)
	}
	engine := router.NewEngine(app.handlers(sqlDB, version), opts)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	close(limiterStop)
	app.stop(shutdownCtx)
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
