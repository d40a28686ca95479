package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the configuration and report what will run",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ok := true
	check := func(label string, pass, required bool, detail string) {
		mark := "ok"
		if !pass {
			mark = "missing"
			if required {
				mark = "MISSING"
				ok = false
			}
		}
		fmt.Printf("%-28s %-8s %s\n", label, mark, detail)
	}

	check("groq api key", cfg.Providers.Groq.APIKey != "", false, "GROQ_API_KEY")
	check("anthropic api key", cfg.Providers.Anthropic.APIKey != "", false, "ANTHROPIC_API_KEY")
	if err := cfg.ValidateProviders(); err != nil {
		ok = false
		fmt.Println("\nAt least one provider key is required.")
	}

	check("slack bot token", cfg.Slack.BotToken != "", false, "SLACK_BOT_TOKEN (needed for `nanobot start`)")
	check("slack app token", cfg.Slack.AppToken != "", false, "SLACK_APP_TOKEN (needed for `nanobot start`)")

	workspace := cfg.WorkspaceDir()
	info, statErr := os.Stat(workspace)
	check("workspace", statErr == nil && info.IsDir(), true, workspace)
	check("sessions dir", dirWritable(config.SessionsDir()), true, config.SessionsDir())

	if cfg.BackupEnabled() {
		fmt.Printf("%-28s %-8s bucket %s, schedule %q\n", "backup", "ok", cfg.Backup.Bucket, cfg.Backup.Schedule)
	} else {
		fmt.Printf("%-28s %-8s set bucket and AWS credentials to enable\n", "backup", "disabled")
	}

	fmt.Printf("\nDashboard will listen on %s\n", cfg.Addr())

	if !ok {
		return fmt.Errorf("configuration incomplete")
	}
	fmt.Println("Configuration looks good.")
	return nil
}

func dirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".verify-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
