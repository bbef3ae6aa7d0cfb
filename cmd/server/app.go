package main

import (
	"context"
	"fmt"

	analyticsapp "github.com/grocer/backend/internal/application/analytics"
	cartapp "github.com/grocer/backend/internal/application/cart"
	catalogapp "github.com/grocer/backend/internal/application/catalog"
	deliveryapp "github.com/grocer/backend/internal/application/delivery"
	eventapp "github.com/grocer/backend/internal/application/event"
	identityapp "github.com/grocer/backend/internal/application/identity"
	orderingapp "github.com/grocer/backend/internal/application/ordering"
	promotionapp "github.com/grocer/backend/internal/application/promotion"
	uploadapp "github.com/grocer/backend/internal/application/upload"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/auth"
	"github.com/grocer/backend/internal/infrastructure/cache"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/grocer/backend/internal/infrastructure/event"
	"github.com/grocer/backend/internal/infrastructure/payment"
	"github.com/grocer/backend/internal/infrastructure/persistence"
	"github.com/grocer/backend/internal/infrastructure/printing"
	"github.com/grocer/backend/internal/infrastructure/scheduler"
	"github.com/grocer/backend/internal/infrastructure/storage"
	"github.com/grocer/backend/internal/infrastructure/telemetry"
	"github.com/grocer/backend/internal/interfaces/http/handler"
	"github.com/grocer/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// app holds the wired services and the background workers
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	stores    *cache.Stores
	bus       *event.InMemoryEventBus
	processor *event.OutboxProcessor
	jobs      *scheduler.Scheduler
	chrome    *printing.ChromePDF

	authService     *identityapp.AuthService
	userService     *identityapp.UserService
	productService  *catalogapp.ProductService
	importService   *catalogapp.ProductImportService
	categoryService *catalogapp.CategoryService
	searchService   *catalogapp.SearchService
	zoneService     *deliveryapp.ZoneService
	slotService     *deliveryapp.SlotService
	voucherService  *promotionapp.VoucherService
	cartService     *cartapp.Service
	orderService    *orderingapp.Service
	uploadService   *uploadapp.Service
	dashboard       *analyticsapp.DashboardService
	outboxService   *eventapp.OutboxService
}

func buildApp(ctx context.Context, cfg *config.Config, db *persistence.Database, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}
	loc := cfg.App.Location()

	stores, err := cache.NewStores(ctx, cfg.Redis, cache.WithLogger(log))
	if err != nil {
		return nil, err
	}
	a.stores = stores

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if stores.Client != nil {
		blacklist = auth.NewRedisTokenBlacklist(stores.Client)
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	zoneRepo := persistence.NewGormZoneRepository(db.DB)
	slotRepo := persistence.NewGormSlotRepository(db.DB)
	voucherRepo := persistence.NewGormVoucherRepository(db.DB)
	usageRepo := persistence.NewGormVoucherUsageRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	salesRepo := persistence.NewGormSalesReportRepository(db.DB)
	outboxRepo := persistence.NewGormOutboxRepository(db.DB)
	txm := persistence.NewTransactionManager(db.DB)

	// Events are written to the outbox inside the business transaction
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outbox := event.NewOutboxPublisher(serializer, outboxRepo).WithMaxRetries(cfg.Event.MaxRetries)

	metrics, err := telemetry.NewBusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("business metrics: %w", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	authCfg := identityapp.DefaultAuthServiceConfig()
	if cfg.JWT.MaxLoginAttempts > 0 {
		authCfg.MaxLoginAttempts = cfg.JWT.MaxLoginAttempts
	}
	if cfg.JWT.LockDuration > 0 {
		authCfg.LockDuration = cfg.JWT.LockDuration
	}
	a.authService = identityapp.NewAuthService(userRepo, txm, outbox, jwtService, blacklist, authCfg, log)
	a.userService = identityapp.NewUserService(userRepo, txm, outbox, blacklist, cfg.JWT.RefreshTokenExpiration, log)

	a.productService = catalogapp.NewProductService(productRepo, categoryRepo, txm, outbox, log)
	a.importService = catalogapp.NewProductImportService(a.productService, productRepo, categoryRepo,
		catalogapp.DefaultImportMaxRows, log)
	a.categoryService = catalogapp.NewCategoryService(categoryRepo, productRepo, log)
	a.searchService = catalogapp.NewSearchService(productRepo)

	a.zoneService = deliveryapp.NewZoneService(zoneRepo, slotRepo, log)
	a.slotService = deliveryapp.NewSlotService(slotRepo, zoneRepo, deliveryapp.SlotConfig{
		BookingCutoff: cfg.Checkout.SlotBookingCutoff,
		Location:      loc,
	}, log)
	a.voucherService = promotionapp.NewVoucherService(voucherRepo, usageRepo, log)
	a.cartService = cartapp.NewService(stores.Carts, productRepo, a.voucherService, a.zoneService, log)

	gateway, err := payment.NewGateway(cfg.Stripe, log)
	if err != nil {
		return nil, err
	}
	invoices, err := printing.NewInvoiceRenderer(cfg.Printing, cfg.Checkout.Currency, loc)
	if err != nil {
		return nil, err
	}
	deps := orderingapp.Dependencies{
		Orders:    orderRepo,
		Products:  productRepo,
		Zones:     zoneRepo,
		Slots:     slotRepo,
		Vouchers:  voucherRepo,
		Usages:    usageRepo,
		Users:     userRepo,
		Carts:     stores.Carts,
		Tx:        txm,
		Events:    outbox,
		Payments:  gateway,
		Processed: stores.Idempotency,
		Invoices:  invoices,
		Metrics:   metrics,
		Logger:    log,
	}
	if cfg.Printing.PDFEnabled {
		a.chrome = printing.NewChromePDF(cfg.Printing.ChromeTimeout, log)
		deps.PDF = a.chrome
	}
	a.orderService = orderingapp.NewService(deps, orderingapp.Config{
		Currency:          cfg.Checkout.Currency,
		SlotBookingCutoff: cfg.Checkout.SlotBookingCutoff,
		WebhookDedupTTL:   cfg.Checkout.IdempotencyTTL,
		Location:          loc,
	})

	objects, err := newObjectStorage(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	a.uploadService = uploadapp.NewService(objects, uploadapp.Config{
		MaxSize:       cfg.Storage.MaxUploadSize,
		PresignExpiry: cfg.Storage.PresignExpiry,
	}, log)

	a.dashboard = analyticsapp.NewDashboardService(salesRepo, productRepo, loc, log)
	a.outboxService = eventapp.NewOutboxService(outboxRepo, log)

	// In-process subscribers
	a.bus = event.NewInMemoryEventBus(log)
	lowStock := catalogapp.NewLowStockHandler(log).WithRecorder(metrics)
	a.bus.Subscribe(event.NewIdempotentHandler(lowStock, stores.Idempotency, shared.DefaultIdempotencyConfig(), log))

	if cfg.Event.ProcessorEnabled {
		procCfg := event.DefaultOutboxProcessorConfig()
		procCfg.BatchSize = cfg.Event.BatchSize
		procCfg.PollInterval = cfg.Event.PollInterval
		procCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		procCfg.CleanupRetention = cfg.Event.CleanupRetention
		a.processor = event.NewOutboxProcessor(outboxRepo, a.bus,
			event.NewEntryPublisher(cfg.Kafka, log), serializer, procCfg, log)
	}

	if cfg.Scheduler.Enabled {
		a.jobs = scheduler.New(scheduler.Config{Enabled: true, DefaultTimeout: cfg.Scheduler.JobTimeout}, log)
		job := scheduler.OrderExpiryJob(a.orderService, cfg.Scheduler.OrderExpiryInterval,
			cfg.Checkout.PaymentTimeout, cfg.Scheduler.BatchSize)
		if err := a.jobs.Register(job); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (uploadapp.ObjectStorage, error) {
	if !cfg.Enabled {
		log.Warn("Object storage disabled, uploads are kept in memory")
		return storage.NewMemoryObjectStorage(cfg.PublicBaseURL), nil
	}
	s3, err := storage.NewS3ObjectStorage(ctx, cfg, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Could not verify upload bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3, nil
}

func (a *app) start(ctx context.Context) error {
	if err := a.bus.Start(ctx); err != nil {
		return err
	}
	if a.processor != nil {
		if err := a.processor.Start(ctx); err != nil {
			return err
		}
	}
	if a.jobs != nil {
		if err := a.jobs.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) stop(ctx context.Context) {
	if a.jobs != nil {
		if err := a.jobs.Stop(ctx); err != nil {
			a.logger.Error("Scheduler shutdown failed", zap.Error(err))
		}
	}
	if a.processor != nil {
		if err := a.processor.Stop(ctx); err != nil {
			a.logger.Error("Outbox processor shutdown failed", zap.Error(err))
		}
	}
	if err := a.bus.Stop(ctx); err != nil {
		a.logger.Error("Event bus shutdown failed", zap.Error(err))
	}
	if a.chrome != nil {
		a.chrome.Close()
	}
	if err := a.stores.Close(); err != nil {
		a.logger.Error("Closing stores failed", zap.Error(err))
	}
}

func (a *app) handlers(db handler.Pinger, version string) router.Handlers {
	return router.Handlers{
		Auth:     handler.NewAuthHandler(a.authService),
		Product:  handler.NewProductHandler(a.productService),
		Import:   handler.NewProductImportHandler(a.importService),
		Category: handler.NewCategoryHandler(a.categoryService),
		Search:   handler.NewSearchHandler(a.searchService),
		Delivery: handler.NewDeliveryHandler(a.zoneService, a.slotService),
		Voucher:  handler.NewVoucherHandler(a.voucherService),
		Cart:     handler.NewCartHandler(a.cartService),
		Order:    handler.NewOrderHandler(a.orderService),
		User:     handler.NewUserHandler(a.userService),
		Upload:   handler.NewUploadHandler(a.uploadService),
		Admin:    handler.NewAdminHandler(a.dashboard, a.outboxService),
		Webhook:  handler.NewStripeWebhookHandler(a.orderService),
		Health:   handler.NewHealthHandler(db, version),
	}
}
