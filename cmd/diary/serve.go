package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reflection-diary/internal/api"
	"reflection-diary/internal/bot"
	"reflection-diary/internal/errs"
	"reflection-diary/internal/service"
)

const promptJobTimeout = 2 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the daily prompt scheduler and the Telegram bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entrySvc := service.NewEntryService(a.store.Entries, a.store.Users)
	promptSvc := service.NewPromptService(a.store, a.cfg.Prompt.File, a.log)

	var telegramBot *bot.Bot
	if a.cfg.Bot.Token != "" {
		telegramBot, err = bot.New(a.cfg.Bot.Token, a.store.Users, entrySvc, a.log)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		promptSvc.OnGenerated(telegramBot.DeliverPrompts)
	} else {
		a.log.Info("bot token not set, Telegram bot disabled")
	}

	var scheduler *service.SchedulerService
	if a.cfg.Prompt.Enabled {
		loc, err := a.cfg.Prompt.Location()
		if err != nil {
			return err
		}
		scheduler = service.NewSchedulerService(loc, a.log)
		if _, err := scheduler.ScheduleDaily(service.DailyPromptJob, a.cfg.Prompt.Hour, a.cfg.Prompt.Minute, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), promptJobTimeout)
			defer cancel()
			runScheduledPrompts(jobCtx, a, promptSvc)
		}); err != nil {
			return fmt.Errorf("schedule prompts: %w", err)
		}
	}

	srv := &http.Server{
		Addr: a.cfg.HTTP.Addr,
		Handler: api.NewServer(api.Deps{
			Store:       a.store,
			Entries:     entrySvc,
			Prompts:     promptSvc,
			CORSOrigins: a.cfg.HTTP.CORSOrigins,
			Log:         a.log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("http shutdown", "error", err)
		}
		return nil
	})

	if scheduler != nil {
		g.Go(func() error {
			scheduler.Start()
			<-gCtx.Done()
			a.log.Info("stopping scheduler")
			scheduler.Stop()
			return nil
		})
	}

	if telegramBot != nil {
		g.Go(func() error {
			if err := telegramBot.Start(gCtx); err != nil {
				return fmt.Errorf("bot: %w", err)
			}
			if gCtx.Err() == nil {
				return errors.New("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	a.log.Info("diary started")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}

// runScheduledPrompts logs failures and abandons the run; nothing is retried.
func runScheduledPrompts(ctx context.Context, a *app, prompts *service.PromptService) {
	_, err := prompts.Generate(ctx)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrAlreadyRan), errors.Is(err, service.ErrRunInProgress):
		a.log.Warn("scheduled prompt run skipped", "job", service.DailyPromptJob, "reason", err)
	case errs.IsConfig(err):
		a.log.Error("scheduled prompt run aborted, check the prompt file", "job", service.DailyPromptJob, "error", err)
	default:
		a.log.Error("scheduled prompt run failed", "job", service.DailyPromptJob, "error", err)
	}
}
