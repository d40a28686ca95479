package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/channel"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive terminal chat",
	Long: `Chat with nanobot in the terminal. The conversation persists
under the id "terminal_local" and continues across sessions.

Examples:
  nanobot chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	loop, _, _, err := buildLoop(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	term := channel.NewTerminal()
	err = term.Run(ctx, func(ctx context.Context, userID, text string) string {
		return loop.ProcessTurn(ctx, term.Name(), userID, text)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
