package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"reflection-diary/internal/config"
	"reflection-diary/internal/logging"
	"reflection-diary/internal/repository"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "diary",
	Short:         "A personal knowledge and reflection diary",
	Long:          `Keeps notes, ideas and reflections per user, asks a reflection question every day and exports the diary as Markdown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./config.yaml if present)")
	rootCmd.AddCommand(serveCmd, promptsCmd, exportCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// app holds what every command needs.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	db    *gorm.DB
	store *repository.Store
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.NewWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	db, err := repository.NewDB(cfg.Database.URL, log, cfg.Database.SlowThreshold)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db, store: repository.NewStore(db)}, nil
}

func (a *app) Close() {
	repository.Close(a.db, a.log)
}
