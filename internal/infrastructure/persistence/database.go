package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/grocer/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// Database wraps the shared GORM handle
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the PostgreSQL pool and waits for the server to answer,
// retrying a few times so the API can start alongside its database
// container. A nil logger silences GORM.
func NewDatabase(cfg *config.DatabaseConfig, log gormlogger.Interface) (*Database, error) {
	db, err := openDatabase(postgres.Open(cfg.DSN()), log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := db.waitReady(context.Background(), connectAttempts, connectBackoff); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// openDatabase applies the settings every repository relies on. The
// initial ping is left to waitReady so it can be retried.
func openDatabase(dialector gorm.Dialector, log gormlogger.Interface, opts ...func(*gorm.Config)) (*Database, error) {
	if log == nil {
		log = gormlogger.Discard
	}
	cfg := &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &Database{DB: db}, nil
}

func (d *Database) waitReady(ctx context.Context, attempts int, backoff time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = d.PingContext(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i)):
		}
	}
	return fmt.Errorf("database not reachable after %d attempts: %w", attempts, err)
}

// PingContext checks the pool can reach the server
func (d *Database) PingContext(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases every pooled connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
