//go:build integration

package persistence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/migration"
	"github.com/grocer/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startPostgres runs a throwaway PostgreSQL container and applies the
// embedded migrations to it
func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("grocer_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func pgProduct(t *testing.T, db *gorm.DB, stock int) *catalog.Product {
	t.Helper()
	ctx := context.Background()
	category, err := catalog.NewCategory("Dairy "+uuid.NewString()[:8], "dairy-"+uuid.NewString()[:8])
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Save(ctx, category))

	p, err := catalog.NewProduct("MLK-"+uuid.NewString()[:6], "Whole Milk", category.ID, dec("1.10"), catalog.UnitEach)
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, p.AdjustStock(stock, "initial"))
	}
	require.NoError(t, NewGormProductRepository(db).Save(ctx, p))
	return p
}

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("container tests are skipped in short mode")
	}
	db := startPostgres(t)

	t.Run("concurrent stock deduction never oversells", func(t *testing.T) {
		repo := NewGormProductRepository(db)
		p := pgProduct(t, db, 5)

		var ok, short atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 12; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := repo.DeductStock(context.Background(), p.ID, 1)
				var domainErr *shared.DomainError
				switch {
				case err == nil:
					ok.Add(1)
				case errors.As(err, &domainErr) && domainErr.Code == "INSUFFICIENT_STOCK":
					short.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 5, ok.Load())
		assert.EqualValues(t, 7, short.Load())
		got, err := repo.FindByID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Stock)
	})

	t.Run("concurrent slot booking respects capacity", func(t *testing.T) {
		ctx := context.Background()
		zone, err := delivery.NewZone("Central", []string{"EC1"}, dec("3.99"), dec("25"))
		require.NoError(t, err)
		require.NoError(t, NewGormZoneRepository(db).Save(ctx, zone))

		start := time.Now().Add(48 * time.Hour).Truncate(time.Hour).UTC()
		slot, err := delivery.NewSlot(zone.ID, start, start.Add(2*time.Hour), 3)
		require.NoError(t, err)
		slots := NewGormSlotRepository(db)
		require.NoError(t, slots.Save(ctx, slot))

		var booked, full atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				switch err := slots.Book(ctx, slot.ID); {
				case err == nil:
					booked.Add(1)
				case errors.Is(err, delivery.ErrSlotFull):
					full.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 3, booked.Load())
		assert.EqualValues(t, 5, full.Load())
	})

	t.Run("outbox entries are claimed once across processors", func(t *testing.T) {
		ctx := context.Background()
		repo := NewGormOutboxRepository(db)
		entries := make([]*shared.OutboxEntry, 20)
		ids := make([]uuid.UUID, len(entries))
		for i := range entries {
			entries[i] = newOutboxEntry("OrderPlaced")
			ids[i] = entries[i].ID
		}
		require.NoError(t, repo.Save(ctx, entries...))

		var claimed atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := repo.MarkProcessing(ctx, ids)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				claimed.Add(int32(len(got)))
			}()
		}
		wg.Wait()
		assert.EqualValues(t, len(entries), claimed.Load())
	})

	t.Run("foreign keys are enforced", func(t *testing.T) {
		p, err := catalog.NewProduct("ORPHAN-1", "Orphan", uuid.New(), dec("1"), catalog.UnitEach)
		require.NoError(t, err)
		assert.Error(t, NewGormProductRepository(db).Save(context.Background(), p))
	})
}

func TestPostgres_MigrationsRollBackCleanly(t *testing.T) {
	if testing.Short() {
		t.Skip("container tests are skipped in short mode")
	}
	db := startPostgres(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Down())

	var tables int64
	require.NoError(t, db.Raw(`SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`).Scan(&tables).Error)
	assert.Zero(t, tables)

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.NotZero(t, version)
}
