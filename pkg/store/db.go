package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dbehnke/neuroplay-go/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	// Use modernc.org/sqlite (pure Go, no CGO), registered under the
	// driver name the Dialector below names explicitly.
	"gorm.io/driver/sqlite"
	_ "modernc.org/sqlite"
)

// Config configures the ledger database.
type Config struct {
	Path string
}

// DB wraps the gorm handle used to persist recording sessions and
// discovered devices.
type DB struct {
	gorm *gorm.DB
}

// New opens (creating if necessary) the sqlite ledger at cfg.Path using the
// pure-Go modernc.org/sqlite driver, enables WAL mode, and runs
// AutoMigrate for the store's models.
func New(cfg Config, log *logger.Logger) (*DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create database directory: %w", err)
		}
	}

	dialector := sqlite.Dialector{DriverName: "sqlite", DSN: cfg.Path}

	g, err := gorm.Open(dialector, &gorm.Config{
		Logger: &gormLogAdapter{log: log.WithComponent("store")},
	})
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if err := g.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}

	if err := g.AutoMigrate(&RecordingSession{}, &DiscoveredDevice{}); err != nil {
		return nil, fmt.Errorf("store: migrate schema: %w", err)
	}

	return &DB{gorm: g}, nil
}

// Close releases the underlying database connection.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return fmt.Errorf("store: get underlying db: %w", err)
	}
	return sqlDB.Close()
}

// gormLogAdapter routes gorm's logging through the ambient logger instead
// of gorm's default stdlib-log writer.
type gormLogAdapter struct {
	log *logger.Logger
}

func (a *gormLogAdapter) LogMode(gormlogger.LogLevel) gormlogger.Interface { return a }

func (a *gormLogAdapter) Info(_ context.Context, msg string, args ...interface{}) {
	a.log.Info(fmt.Sprintf(msg, args...))
}

func (a *gormLogAdapter) Warn(_ context.Context, msg string, args ...interface{}) {
	a.log.Warn(fmt.Sprintf(msg, args...))
}

func (a *gormLogAdapter) Error(_ context.Context, msg string, args ...interface{}) {
	a.log.Error(fmt.Sprintf(msg, args...))
}

func (a *gormLogAdapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, rows := fc()
	fields := []logger.Field{
		logger.String("sql", sql),
		logger.Int64("rows", rows),
		logger.String("elapsed", time.Since(begin).String()),
	}
	if err != nil {
		a.log.Debug("query error", append(fields, logger.Error(err))...)
		return
	}
	a.log.Debug("query", fields...)
}
