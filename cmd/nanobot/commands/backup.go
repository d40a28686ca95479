package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload a workspace backup to S3 now",
	RunE:  runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := backup.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create backup service: %w", err)
	}
	if !svc.Enabled() {
		return fmt.Errorf("backup is not configured: set the bucket and AWS credentials")
	}

	if err := svc.Run(ctx); err != nil {
		return err
	}
	fmt.Println("Backup uploaded.")
	return nil
}
