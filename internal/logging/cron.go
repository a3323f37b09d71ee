package logging

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronLogger implements cron.Logger. Cron's routine info messages go to
// debug so the scheduler does not flood the log every tick.
type cronLogger struct {
	log *slog.Logger
}

// NewCronLogger adapts log to robfig/cron's Logger interface.
//
//nolint:ireturn // cron expects the interface
func NewCronLogger(log *slog.Logger) cron.Logger {
	return &cronLogger{log: log.With("component", "cron")}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		// Emitted by cron.SkipIfStillRunning.
		l.log.Warn("job still running, skipping this tick", keysAndValues...)
		return
	}
	l.log.Debug(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
