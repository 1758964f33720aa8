/*
Package cli provides command-line utilities shared by the retentiond
subcommands.

The cli package includes output formatters, a table renderer, a progress
reporter, and signal helpers used by the retentiond command.

Output Formatting:

Commands support text and JSON output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, records); err != nil {
		return err
	}

Text listings use the table renderer for aligned columns:

	table := cli.NewTable(os.Stdout, "ID", "NAME", "DATA TYPE")
	for _, p := range policies {
		table.Row(p.ID, p.Name, p.DataType)
	}
	table.Flush()

Progress Reporting:

Archive verification reports per-file progress:

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(int64(len(entries)))
	for i, entry := range entries {
		// Recompute the checksum
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

Manual executions run under a signal-cancelled context so Ctrl-C aborts
the run while still recording a terminal status:

	ctx := cli.SetupSignalHandler()
	record, err := sched.TriggerNow(ctx, policyID, dryRun)
*/
package cli
