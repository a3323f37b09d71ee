package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"reflection-diary/internal/logging"
)

// DailyPromptJob names the scheduled prompt generation job in logs.
const DailyPromptJob = "daily_prompt"

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
	log  *slog.Logger
}

// NewSchedulerService creates a scheduler firing in loc. A job that is still
// running when its next tick arrives is skipped, and panics are recovered.
func NewSchedulerService(loc *time.Location, log *slog.Logger) *SchedulerService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logging.Discard()
	}
	cronLog := logging.NewCronLogger(log)
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		log: log.With("component", "scheduler"),
	}
}

// ScheduleDaily registers job to run every day at hour:minute.
func (s *SchedulerService) ScheduleDaily(name string, hour, minute int, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(hour, minute)
	if err != nil {
		return 0, err
	}
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Info("job scheduled", "job", name, "at", fmt.Sprintf("%02d:%02d", hour, minute))
	return id, nil
}

// Next reports the next activation of the job.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(hour, minute int) (string, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %d, expected 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %d, expected 0-59", minute)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
