package database

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB *gorm.DB
	// X is a sqlx handle over the same pool, used by the read side.
	X *sqlx.DB
)

// ErrDuplicateKey is returned by TranslateError for unique constraint hits.
var ErrDuplicateKey = errors.New("duplicate key")

func Connect(cfg *config.Config) error {
	db, err := Open(cfg.DBDriver, dsnFor(cfg))
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// SQLite allows one writer; serialize through a single connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	x, err := NewReader(db)
	if err != nil {
		return err
	}

	DB, X = db, x
	slog.Info("database connected", "driver", cfg.DBDriver)
	return nil
}

// Open returns a gorm handle for driver ("postgres" or "sqlite"). Timestamps
// are always written in UTC.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// NewReader wraps the gorm pool in a sqlx handle with the matching bind style.
func NewReader(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	driverName := "sqlite3"
	if db.Dialector.Name() == "postgres" {
		driverName = "postgres"
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}

func dsnFor(cfg *config.Config) string {
	if cfg.DBDriver == "sqlite" {
		return cfg.SQLitePath
	}
	return cfg.DSN()
}

// Migrate runs AutoMigrate for every entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// TranslateError maps driver-specific unique violations to ErrDuplicateKey.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505") {
		return ErrDuplicateKey
	}
	return err
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
