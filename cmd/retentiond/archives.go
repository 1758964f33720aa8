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
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/archive"
)

var archivesFlags struct {
	dataType string
	limit    int
	verify   bool
	output   string
}

var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "List and verify published archives",
	Long: `List published archive files with aggregate totals over the full
matching set.

With --verify, the checksum of every listed archive is recomputed from the
file on disk and compared against the recorded value. The command exits
non-zero if any archive fails verification.

Examples:
  # List recent archives
  retentiond archives --limit 20

  # Telemetry archives only
  retentiond archives --data-type telemetry

  # Verify the listed archives against their recorded checksums
  retentiond archives --verify`,
	RunE: showArchives,
}

func init() {
	rootCmd.AddCommand(archivesCmd)

	archivesCmd.Flags().StringVar(&archivesFlags.dataType, "data-type", "", "filter by data type")
	archivesCmd.Flags().IntVar(&archivesFlags.limit, "limit", 20, "number of archives to show")
	archivesCmd.Flags().BoolVar(&archivesFlags.verify, "verify", false, "recompute checksums for the listed archives")
	archivesCmd.Flags().StringVarP(&archivesFlags.output, "output", "o", "text", "output format: text, json")
}

func showArchives(cmd *cobra.Command, args []string) error {
	if archivesFlags.verify && archivesFlags.output == "json" {
		return cli.NewConfigError("output", "--verify requires text output")
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

	listing, err := trk.Archives(context.Background(), &retention.ArchiveQuery{
		DataType: archivesFlags.dataType,
		Limit:    archivesFlags.limit,
	})
	if err != nil {
		return cli.NewCommandError("archives", err)
	}

	if archivesFlags.output == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, listing)
	}

	if len(listing.Entries) == 0 {
		fmt.Println("No archives found")
		return nil
	}

	table := cli.NewTable(os.Stdout, "ID", "DATA TYPE", "RECORDS", "SIZE", "COMPRESSION", "CREATED", "PATH")
	for _, e := range listing.Entries {
		table.Row(
			shortID(e.ID),
			e.DataType,
			strconv.FormatInt(e.RecordCount, 10),
			formatBytes(e.SizeBytes),
			e.Compression,
			e.CreatedAt.Format(time.RFC3339),
			e.Path,
		)
	}
	if err := table.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d archives, %s total\n", listing.TotalCount, formatBytes(listing.TotalSizeBytes))

	if !archivesFlags.verify {
		return nil
	}

	fmt.Println("\nVerifying checksums...")
	reporter := cli.NewProgressReporter(os.Stdout)
	reporter.Start(int64(len(listing.Entries)))

	var failed int
	for i, e := range listing.Entries {
		if err := archive.Verify(e.Path, e.Checksum); err != nil {
			failed++
			fmt.Printf("\n✗ %s: %v\n", e.Path, err)
		}
		reporter.Update(int64(i + 1))
	}
	reporter.Finish()

	if failed > 0 {
		return fmt.Errorf("%d of %d archives failed verification", failed, len(listing.Entries))
	}
	fmt.Printf("✓ %d archives verified\n", len(listing.Entries))
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
