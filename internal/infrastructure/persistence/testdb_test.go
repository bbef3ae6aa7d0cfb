package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/shared/valueobject"
	"github.com/grocer/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with the full schema.
// A single connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, repo *GormProductRepository, sku, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, name, uuid.New(), dec(price), catalog.UnitEach)
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, p.AdjustStock(stock, "initial"))
	}
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func seedSlot(t *testing.T, db *gorm.DB, capacity int) *delivery.Slot {
	t.Helper()
	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour).UTC()
	slot, err := delivery.NewSlot(uuid.New(), start, start.Add(2*time.Hour), capacity)
	require.NoError(t, err)
	require.NoError(t, NewGormSlotRepository(db).Save(context.Background(), slot))
	return slot
}

func newPlacedOrder(t *testing.T, userID uuid.UUID, products ...*catalog.Product) *ordering.Order {
	t.Helper()
	addr, err := valueobject.NewAddress("Ada Lovelace", "1 Market St", "", "London", "SW1A 1AA", "07700900000")
	require.NoError(t, err)
	o, err := ordering.NewOrder(userID, addr)
	require.NoError(t, err)
	for _, p := range products {
		require.NoError(t, o.AddItem(p.ID, p.Name, p.SKU, string(p.Unit), p.Price, 2))
	}
	start := time.Now().Add(24 * time.Hour).UTC()
	o.SetDelivery(uuid.New(), uuid.New(), start, start.Add(time.Hour), dec("3.50"))
	require.NoError(t, o.Place())
	return o
}
