package persistence

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase opens a Database over sqlmock with the production settings
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	// Statement caching would turn every expectation into a Prepare.
	db, err := openDatabase(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), nil,
		func(c *gorm.Config) { c.PrepareStmt = false })
	require.NoError(t, err)
	return db, mock, mockDB
}

func TestDatabase_WaitReadyRetries(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	require.NoError(t, db.waitReady(context.Background(), 3, time.Millisecond))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_WaitReadyGivesUp(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	err := db.waitReady(context.Background(), 2, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductRepository_DeductStockIsConditionalUpdate(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(db.DB)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock - $1,"updated_at"=$2,"version"=version + 1 WHERE id = $3 AND stock >= $4`)).
		WithArgs(3, sqlmock.AnyArg(), id, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeductStock(context.Background(), id, 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSlotRepository_BookIsConditionalUpdate(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormSlotRepository(db.DB)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "delivery_slots" SET "booked"=booked + 1,"updated_at"=$1,"version"=version + 1 WHERE id = $2 AND active = $3 AND booked < capacity`)).
		WithArgs(sqlmock.AnyArg(), id, true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "delivery_slots" WHERE id = $1`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity", "booked", "active"}).AddRow(id, 2, 2, true))

	assert.ErrorIs(t, repo.Book(context.Background(), id), delivery.ErrSlotFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormVoucherRepository_IncrementUsageIsConditionalUpdate(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormVoucherRepository(db.DB)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "vouchers" SET "updated_at"=$1,"used_count"=used_count + 1,"version"=version + 1 WHERE id = $2 AND (max_uses IS NULL OR used_count < max_uses)`)).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "vouchers" WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assert.ErrorIs(t, repo.IncrementUsage(context.Background(), id), promotion.ErrVoucherExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormVoucherRepository_LockByCodeTakesRowLock(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormVoucherRepository(db.DB)

	mock.ExpectQuery(`SELECT \* FROM "vouchers" WHERE code = \$1 .*FOR UPDATE`).
		WithArgs("WELCOME10", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.LockByCode(context.Background(), " welcome10 ")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
