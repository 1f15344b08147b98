package kvstore

import (
	"fmt"
	"time"

	"github.com/shipshape/backend/internal/infrastructure/config"
	"github.com/shipshape/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the connection backing the sql slot drivers
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the database selected by cfg.Storage.Driver (sqlite or postgres)
func NewDatabase(cfg *config.Config, zapLogger *zap.Logger) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Storage.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Storage.SQLitePath)
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN())
	default:
		return nil, fmt.Errorf("driver %q is not a sql driver", cfg.Storage.Driver)
	}

	db, err := NewDatabaseWithDialector(dialector, zapLogger, gormlogger.Warn)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Storage.Driver == "sqlite" {
		// one connection, so ":memory:" is a single shared database
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.Database.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewDatabaseWithDialector opens a database from an explicit dialector,
// logging SQL through zap at the given level
func NewDatabaseWithDialector(dialector gorm.Dialector, zapLogger *zap.Logger, level gormlogger.LogLevel) (*Database, error) {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(zapLogger, level),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
