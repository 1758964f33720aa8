package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "retentiond",
	Short: "Retentiond - data retention daemon for the IoT telemetry platform",
	Long: `Retentiond schedules and executes data retention policies over platform
records: telemetry readings, alerts, audit logs, and device events.

Each policy names a data category, a retention window in days, an optional
archive-before-delete step, and a cron schedule. The daemon runs due
policies, archives expiring records to compressed, checksummed files when
configured, deletes them from the hot store, and keeps an immutable audit
trail of every execution.

For more information, visit: https://github.com/WilBtc/InsaAutomationCorp-sub007`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Disable default completion command (we'll add our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
