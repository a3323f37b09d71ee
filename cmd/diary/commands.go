package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"reflection-diary/internal/bot"
	"reflection-diary/internal/model"
	"reflection-diary/internal/service"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage daily reflection prompts",
}

var promptsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate today's prompts now",
	Long:  `Creates one reflection prompt entry per active user for today's slot. Fails if today's prompts were already generated.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		promptSvc := service.NewPromptService(a.store, a.cfg.Prompt.File, a.log)
		if deliver, _ := cmd.Flags().GetBool("deliver"); deliver {
			if a.cfg.Bot.Token == "" {
				return errors.New("--deliver needs a bot token")
			}
			entrySvc := service.NewEntryService(a.store.Entries, a.store.Users)
			telegramBot, err := bot.New(a.cfg.Bot.Token, a.store.Users, entrySvc, a.log)
			if err != nil {
				return fmt.Errorf("bot: %w", err)
			}
			promptSvc.OnGenerated(telegramBot.DeliverPrompts)
		}

		res, err := promptSvc.Generate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s (%s): %d prompts created\n", res.RunID, res.Slot, len(res.Deliveries))
		return nil
	},
}

var (
	exportUserID uint
	exportStart  string
	exportEnd    string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's diary as Markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportUserID == 0 {
			return errors.New("--user-id is required")
		}
		start, err := flagDate(exportStart)
		if err != nil {
			return err
		}
		end, err := flagDate(exportEnd)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entrySvc := service.NewEntryService(a.store.Entries, a.store.Users)
		md, n, err := entrySvc.ExportMarkdown(cmd.Context(), exportUserID, start, end)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), service.NoEntriesMessage)
			return nil
		}
		if exportOut == "" || exportOut == "-" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), md)
			return err
		}
		if err := os.WriteFile(exportOut, []byte(md+"\n"), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d entries written to %s\n", n, exportOut)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

func init() {
	promptsRunCmd.Flags().Bool("deliver", false, "send the prompts through the Telegram bot")
	promptsCmd.AddCommand(promptsRunCmd)

	exportCmd.Flags().UintVar(&exportUserID, "user-id", 0, "internal user id")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "first day to include (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "last day to include (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}

func flagDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
