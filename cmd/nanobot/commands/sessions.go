package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/config"
	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/session"
)

var (
	sessionsLimit    int
	exportFormat     string
	exportOutput     string
	cleanupOlderThan time.Duration
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored conversations",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, newest first",
	RunE:  runSessionsList,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a conversation as JSON or CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

var sessionsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete conversations older than a cutoff",
	RunE:  runSessionsCleanup,
}

func init() {
	sessionsListCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "maximum sessions to show (0 = all)")
	sessionsExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json or csv")
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	sessionsCleanupCmd.Flags().DurationVar(&cleanupOlderThan, "older-than", 30*24*time.Hour, "delete conversations idle longer than this")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	sessionsCmd.AddCommand(sessionsCleanupCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func sessionStore() *session.Store {
	return session.NewStore(config.SessionsDir())
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	summaries, err := sessionStore().List(sessionsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No stored conversations.")
		return nil
	}

	fmt.Printf("%-24s %-10s %-12s %8s  %s\n", "SESSION", "CHANNEL", "USER", "MESSAGES", "LAST ACTIVE")
	for _, s := range summaries {
		fmt.Printf("%-24s %-10s %-12s %8d  %s\n",
			s.SessionID, s.Channel, s.UserID, s.MessageCount,
			s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	data, err := sessionStore().Export(args[0], exportFormat)
	if err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}

	if exportOutput == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	fmt.Printf("Exported %s to %s\n", args[0], exportOutput)
	return nil
}

func runSessionsCleanup(cmd *cobra.Command, args []string) error {
	removed, err := sessionStore().Cleanup(cleanupOlderThan)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Removed %d conversation(s) older than %s.\n", removed, cleanupOlderThan)
	return nil
}
