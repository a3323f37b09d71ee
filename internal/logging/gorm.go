package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gormLogger implements gorm's logger.Interface on top of slog.
type gormLogger struct {
	log           *slog.Logger
	slowThreshold time.Duration
	level         logger.LogLevel
}

// NewGormLogger returns a gorm logger writing to log. Queries slower than
// slowThreshold are reported as warnings; zero disables the check.
//
//nolint:ireturn // gorm expects the interface
func NewGormLogger(log *slog.Logger, slowThreshold time.Duration) logger.Interface {
	return &gormLogger{
		log:           log.With("component", "gorm"),
		slowThreshold: slowThreshold,
		level:         logger.Warn,
	}
}

//nolint:ireturn // gorm expects the interface
func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{"elapsed", elapsed, "rows", rows, "sql", sql}

	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		l.log.DebugContext(ctx, "query returned no rows", attrs...)
	case err != nil && errors.Is(err, gorm.ErrDuplicatedKey):
		// Surfaced to callers as a domain error.
		l.log.DebugContext(ctx, "query hit unique constraint", attrs...)
	case err != nil:
		if l.level >= logger.Error {
			l.log.ErrorContext(ctx, "query failed", append(attrs, "error", err)...)
		}
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		if l.level >= logger.Warn {
			l.log.WarnContext(ctx, "slow query", append(attrs, "threshold", l.slowThreshold)...)
		}
	default:
		l.log.DebugContext(ctx, "query", attrs...)
	}
}
