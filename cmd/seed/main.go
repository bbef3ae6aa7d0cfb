package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	catalogapp "github.com/grocer/backend/internal/application/catalog"
	deliveryapp "github.com/grocer/backend/internal/application/delivery"
	identityapp "github.com/grocer/backend/internal/application/identity"
	promotionapp "github.com/grocer/backend/internal/application/promotion"
	"github.com/grocer/backend/internal/domain/identity"
	"github.com/grocer/backend/internal/infrastructure/auth"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/grocer/backend/internal/infrastructure/event"
	"github.com/grocer/backend/internal/infrastructure/logger"
	"github.com/grocer/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newSeedCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type seedFlags struct {
	Options
	adminEmail string
	adminPass  string
	seed       uint64
}

func newSeedCmd() *cobra.Command {
	var f seedFlags
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Fill the database with demo catalog, delivery and customer data",
		Long:          "Creates categories, products, delivery zones with slots, vouchers and customers.\nRecords that already exist are skipped, so the command can be re-run.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), f)
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&f.Products, "products", 120, "number of products to create")
	fl.IntVar(&f.Customers, "customers", 25, "number of customer accounts to register")
	fl.IntVar(&f.SlotDays, "slot-days", 7, "days of delivery slots to generate per zone")
	fl.StringVar(&f.Password, "password", "Password123", "password for generated customers")
	fl.StringVar(&f.adminEmail, "admin-email", "admin@grocer.example.com", "email of the admin account")
	fl.StringVar(&f.adminPass, "admin-password", "", "password of the admin account, skipped when empty")
	fl.Uint64Var(&f.seed, "seed", 0, "random seed, 0 picks one")
	return cmd
}

func runSeed(parent context.Context, f seedFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Output: "stdout"})
	defer func() { _ = log.Sync() }()

	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel("warn")))
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	zoneRepo := persistence.NewGormZoneRepository(db.DB)
	slotRepo := persistence.NewGormSlotRepository(db.DB)
	voucherRepo := persistence.NewGormVoucherRepository(db.DB)
	usageRepo := persistence.NewGormVoucherUsageRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	txm := persistence.NewTransactionManager(db.DB)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outbox := event.NewOutboxPublisher(serializer, persistence.NewGormOutboxRepository(db.DB))

	authService := identityapp.NewAuthService(userRepo, txm, outbox, auth.NewJWTService(cfg.JWT),
		auth.NewInMemoryTokenBlacklist(), identityapp.DefaultAuthServiceConfig(), log)

	if f.adminPass != "" {
		if err := ensureAdmin(ctx, userRepo, f.adminEmail, f.adminPass); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		log.Info("Admin account ready", zap.String("email", f.adminEmail))
	}

	s := &Seeder{
		faker:      gofakeit.New(f.seed),
		categories: catalogapp.NewCategoryService(categoryRepo, productRepo, log),
		products:   catalogapp.NewProductService(productRepo, categoryRepo, txm, outbox, log),
		zones:      deliveryapp.NewZoneService(zoneRepo, slotRepo, log),
		slots: deliveryapp.NewSlotService(slotRepo, zoneRepo, deliveryapp.SlotConfig{
			BookingCutoff: cfg.Checkout.SlotBookingCutoff,
			Location:      cfg.App.Location(),
		}, log),
		vouchers: promotionapp.NewVoucherService(voucherRepo, usageRepo, log),
		accounts: authService,
		logger:   log,
		now:      time.Now,
	}

	sum, err := s.Run(ctx, f.Options)
	log.Info("Seed finished",
		zap.Int("categories", sum.Categories),
		zap.Int("products", sum.Products),
		zap.Int("zones", sum.Zones),
		zap.Int("slots", sum.Slots),
		zap.Int("vouchers", sum.Vouchers),
		zap.Int("customers", sum.Customers),
		zap.Int("skipped", sum.Skipped),
	)
	return err
}

func ensureAdmin(ctx context.Context, users identity.UserRepository, email, password string) error {
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil || exists {
		return err
	}
	admin, err := identity.NewUser(email, password, "Store Admin", identity.RoleAdmin)
	if err != nil {
		return err
	}
	return users.Save(ctx, admin)
}
