package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/cli"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

var historyFlags struct {
	policyID string
	status   string
	limit    int
	output   string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show execution history",
	Long: `Show the execution audit trail, newest first.

Examples:
  # Last 20 executions across all policies
  retentiond history --limit 20

  # Failed executions of one policy
  retentiond history --policy <id> --status failed

  # Full records as JSON
  retentiond history --output json`,
	RunE: showHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.policyID, "policy", "", "filter by policy ID")
	historyCmd.Flags().StringVar(&historyFlags.status, "status", "", "filter by status (running, success, failed, partial)")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "number of executions to show")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "text", "output format: text, json")
}

func showHistory(cmd *cobra.Command, args []string) error {
	if historyFlags.status != "" {
		switch historyFlags.status {
		case retention.StatusRunning, retention.StatusSuccess, retention.StatusFailed, retention.StatusPartial:
		default:
			return cli.NewConfigError("status", "must be one of: running, success, failed, partial")
		}
	}

	cfg, _, err := loadRuntimeConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	trk, err := openTracker(cfg)
	if err != nil {
		return fmt.Errorf("failed to open execution tracker: %w", err)
	}
	defer trk.Close()

	executions, err := trk.History(context.Background(), &retention.HistoryQuery{
		PolicyID: historyFlags.policyID,
		Status:   historyFlags.status,
		Limit:    historyFlags.limit,
	})
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	if historyFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, executions)
	}

	if len(executions) == 0 {
		fmt.Println("No executions found")
		return nil
	}

	table := cli.NewTable(os.Stdout, "ID", "POLICY", "STATUS", "STARTED", "DURATION", "EVALUATED", "ARCHIVED", "DELETED")
	for _, e := range executions {
		status := e.Status
		if e.DryRun {
			status += " (dry-run)"
		}
		table.Row(
			shortID(e.ID),
			e.PolicyName,
			status,
			e.StartedAt.Format(time.RFC3339),
			formatDurationMS(e.DurationMS),
			strconv.FormatInt(e.RecordsEvaluated, 10),
			strconv.FormatInt(e.RecordsArchived, 10),
			strconv.FormatInt(e.RecordsDeleted, 10),
		)
	}
	if err := table.Flush(); err != nil {
		return err
	}

	// Error tails go below the table; they are too wide for a column.
	for _, e := range executions {
		if e.Error != "" {
			fmt.Printf("\n%s: %s\n", shortID(e.ID), e.Error)
		}
	}
	return nil
}

func formatDurationMS(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}
