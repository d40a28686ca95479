// Package commands implements the nanobot CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nanobot",
	Short: "nanobot - personal assistant bot",
	Long: `nanobot is a personal assistant that bridges Slack to LLM backends,
runs sandboxed local tools, and keeps every conversation on disk.

Commands:
  nanobot start      Run the Slack bot, dashboard, and backup schedule
  nanobot chat       Interactive terminal chat
  nanobot sessions   List, export, and clean up stored conversations
  nanobot backup     Run one workspace backup now
  nanobot verify     Check the configuration`,
}

func Execute(ver string) error {
	version = ver
	return rootCmd.Execute()
}

var version string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nanobot %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
