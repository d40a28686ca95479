package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/backup"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/channel"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/dashboard"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start nanobot (Slack bot + dashboard + backups)",
	Long: `Start nanobot with all components:
- Slack bot answering direct messages and mentions
- HTTP dashboard for status, sessions, and memory
- Scheduled workspace backups to S3 (when configured)

Required environment variables:
  SLACK_BOT_TOKEN  - Slack bot token (xoxb-...)
  SLACK_APP_TOKEN  - Slack app token (xapp-...)
  GROQ_API_KEY or ANTHROPIC_API_KEY

Examples:
  nanobot start`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	loop, store, mem, err := buildLoop(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slackChannel, err := channel.NewSlackChannel(channel.SlackConfig{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("failed to create slack channel: %w", err)
	}

	backupSvc, err := backup.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create backup service: %w", err)
	}
	if err := backupSvc.Start(ctx); err != nil {
		return err
	}
	defer backupSvc.Stop()

	srv := dashboard.New(cfg, log, store, mem, version)

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Run(ctx)
	}()
	go func() {
		errCh <- slackChannel.Run(ctx, func(ctx context.Context, userID, text string) string {
			return loop.ProcessTurn(ctx, slackChannel.Name(), userID, text)
		})
	}()

	log.Info().Str("version", version).Msg("nanobot started")

	// First failure (or shutdown signal propagated through the context)
	// stops everything.
	err = <-errCh
	stop()
	<-errCh

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("nanobot stopped")
	return nil
}
