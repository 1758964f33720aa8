package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/cli"
)

var statsFlags struct {
	output string
}

var statsCmd = &cobra.Command{
	Use:   "stats <policy-id-or-name>",
	Short: "Show execution statistics for one policy",
	Long: `Show execution statistics for one policy, aggregated from the full
execution audit trail.

Examples:
  # Show statistics by policy name
  retentiond stats telemetry-90d

  # Machine-readable output
  retentiond stats telemetry-90d --output json`,
	Args: cobra.ExactArgs(1),
	RunE: showStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsFlags.output, "output", "o", "text", "output format: text, json")
}

func showStats(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntimeConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openPolicyStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open policy store: %w", err)
	}
	defer store.Close()

	trk, err := openTracker(cfg)
	if err != nil {
		return fmt.Errorf("failed to open execution tracker: %w", err)
	}
	defer trk.Close()

	ctx := context.Background()
	p, err := resolvePolicy(ctx, store, args[0])
	if err != nil {
		return cli.NewCommandError("stats", err)
	}

	stats, err := trk.Stats(ctx, p.ID)
	if err != nil {
		return cli.NewCommandError("stats", err)
	}

	if statsFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, stats)
	}

	fmt.Printf("Statistics for %s:\n", p.Name)
	fmt.Printf("  Executions:       %d\n", stats.Executions)
	fmt.Printf("  Succeeded:        %d\n", stats.Succeeded)
	fmt.Printf("  Failed:           %d\n", stats.Failed)
	fmt.Printf("  Partial:          %d\n", stats.Partial)
	fmt.Printf("  Dry Runs:         %d\n", stats.DryRuns)
	fmt.Printf("  Records Deleted:  %d\n", stats.TotalRecordsDeleted)
	fmt.Printf("  Records Archived: %d\n", stats.TotalRecordsArchived)
	fmt.Printf("  Avg Duration:     %s\n", formatDurationMS(stats.AvgDurationMS))
	if stats.LastExecutedAt != nil {
		fmt.Printf("  Last Execution:   %s (%s)\n", stats.LastExecutedAt.Format(time.RFC3339), stats.LastExecutionStatus)
	}
	return nil
}
