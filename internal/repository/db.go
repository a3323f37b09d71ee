package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reflection-diary/internal/errs"
	"reflection-diary/internal/logging"
	"reflection-diary/internal/model"
)

// NewDB opens the database named by url and runs migrations. URLs starting
// with postgres:// or postgresql:// use PostgreSQL; anything else is a
// SQLite path or DSN.
func NewDB(url string, log *slog.Logger, slowThreshold time.Duration) (*gorm.DB, error) {
	db, err := Open(url, log, slowThreshold)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		Close(db, log)
		return nil, err
	}
	return db, nil
}

// Open connects without migrating.
func Open(url string, log *slog.Logger, slowThreshold time.Duration) (*gorm.DB, error) {
	if url == "" {
		url = "data/diary.db"
	}
	if log == nil {
		log = logging.Discard()
	}

	cfg := &gorm.Config{
		Logger:         logging.NewGormLogger(log, slowThreshold),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	if isPostgres(url) {
		db, err := gorm.Open(postgres.Open(url), cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		log.Info("database connected", "driver", "postgres")
		return db, nil
	}

	if err := ensureDirForSQLite(url); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(sqliteDSN(url)), cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite serializes writers; one connection also keeps :memory: databases alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	log.Info("database connected", "driver", "sqlite", "path", url)
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Entry{}, &model.PromptRun{}); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func Close(db *gorm.DB, log *slog.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil && log != nil {
		log.Error("close database", "error", err)
	}
}

// Ping checks the connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func isPostgres(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// sqliteDSN turns on foreign key enforcement so entry ownership holds.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// ensureDirForSQLite creates parent dir for SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// storeErr translates gorm errors into domain errors. Context errors are
// passed through so callers can tell cancellation apart.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errs.Code(err) != errs.CodeUnknown:
		return err
	default:
		return errs.NewDatabaseError(op, err)
	}
}
