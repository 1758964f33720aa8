package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/cli"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/datastore"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/archive"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/engine"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/scheduler"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/logging"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/metrics"
)

var executeFlags struct {
	dryRun bool
	output string
}

var executeCmd = &cobra.Command{
	Use:   "execute <policy-id-or-name>",
	Short: "Run one retention policy immediately",
	Long: `Run one retention policy immediately without waiting for its
schedule.

The execution runs synchronously against the configured stores and is
recorded in the audit trail like a scheduled run. Disabled policies can be
executed this way. With --dry-run the expiring records are counted but
nothing is archived or deleted.

Interrupting the command cancels the run; the execution still reaches a
terminal status in the audit trail.

Examples:
  # Run a policy now
  retentiond execute telemetry-90d

  # Count what would expire without touching anything
  retentiond execute telemetry-90d --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: executePolicy,
}

func init() {
	rootCmd.AddCommand(executeCmd)

	executeCmd.Flags().BoolVar(&executeFlags.dryRun, "dry-run", false, "count expiring records without archiving or deleting")
	executeCmd.Flags().StringVarP(&executeFlags.output, "output", "o", "text", "output format: text, json")
}

func executePolicy(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntimeConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Component logs go to stderr so stdout stays parseable.
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(&logging.Config{Level: level, Format: "text", Output: os.Stderr})
	if err != nil {
		return cli.NewConfigError("telemetry.logging.level", err.Error())
	}
	slog.SetDefault(logger)

	policies, err := openPolicyStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open policy store: %w", err)
	}
	defer policies.Close()

	trk, err := openTracker(cfg)
	if err != nil {
		return fmt.Errorf("failed to open execution tracker: %w", err)
	}
	defer trk.Close()

	records, err := openRecordStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer records.Close()

	registry := datastore.NewRegistry()
	if err := registerBuiltinTypes(registry, records); err != nil {
		return fmt.Errorf("failed to register data types: %w", err)
	}

	archiver := archive.NewWriter(&archive.Config{Root: cfg.Archive.Root})
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	eng := engine.New(policies, registry, archiver, trk, collector)
	sched := scheduler.New(nil, policies, eng, collector)

	ctx := cli.SetupSignalHandler()

	p, err := resolvePolicy(ctx, policies, args[0])
	if err != nil {
		return cli.NewCommandError("execute", err)
	}

	// Progress lines are suppressed in JSON mode so stdout stays a single
	// parseable document.
	if executeFlags.output != "json" {
		if executeFlags.dryRun {
			fmt.Printf("Dry-running %s...\n", p.Name)
		} else {
			fmt.Printf("Executing %s...\n", p.Name)
		}
	}

	rec, err := sched.TriggerNow(ctx, p.ID, executeFlags.dryRun)
	if err != nil {
		return cli.NewCommandError("execute", err)
	}

	if executeFlags.output == "json" {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rec); err != nil {
			return err
		}
	} else {
		printExecution(rec)
	}

	switch rec.Status {
	case retention.StatusFailed, retention.StatusPartial:
		msg := rec.Error
		if msg == "" {
			msg = "execution " + rec.Status
		}
		return cli.NewCommandError("execute", errors.New(msg))
	}
	return nil
}

func printExecution(rec *retention.ExecutionRecord) {
	symbol := "✓"
	if rec.Status != retention.StatusSuccess {
		symbol = "✗"
	}
	fmt.Printf("%s Execution %s: %s\n", symbol, rec.ID, rec.Status)
	fmt.Printf("  Policy:            %s (%s)\n", rec.PolicyName, rec.DataType)
	fmt.Printf("  Started:           %s\n", rec.StartedAt.Format(time.RFC3339))
	fmt.Printf("  Duration:          %s\n", formatDurationMS(rec.DurationMS))
	fmt.Printf("  Records Evaluated: %d\n", rec.RecordsEvaluated)
	fmt.Printf("  Records Archived:  %d\n", rec.RecordsArchived)
	fmt.Printf("  Records Deleted:   %d\n", rec.RecordsDeleted)
	if rec.DryRun {
		fmt.Printf("  Dry Run:           no records were modified\n")
	}
	if rec.ArchiveID != "" {
		fmt.Printf("  Archive ID:        %s\n", rec.ArchiveID)
	}
	if rec.Error != "" {
		fmt.Printf("  Error:             %s\n", rec.Error)
	}
}
