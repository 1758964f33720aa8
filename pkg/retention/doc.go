// Package retention defines the core types for the data-lifecycle engine:
// retention policies, execution records, and archive entries, plus the
// error taxonomy shared by every layer built on top of them.
//
// # Architecture
//
// The retention system consists of five layers:
//
//  1. Policy Store - Persists retention policies (memory, SQLite)
//  2. Execution Engine - Evaluates a policy: count, archive, delete
//  3. Archiver - Writes checksummed archive files before deletion
//  4. Tracker - Append-only history of executions and archives
//  5. Scheduler - Runs due policies on their cron recurrence
//
// # Policies
//
// A Policy names a record category (its data type tag), how many days
// records are kept, whether expiring records are archived first, optional
// attribute filters, and a 5-field cron schedule:
//
//	policy := &retention.Policy{
//	    Name:          "telemetry-90d",
//	    DataType:      "telemetry",
//	    RetentionDays: 90,
//	    ArchiveBeforeDelete: true,
//	    Archive: &retention.ArchiveSpec{
//	        Destination: "telemetry",
//	        Compression: retention.CompressionGzip,
//	    },
//	    Schedule: "0 3 * * *", // Daily at 3 AM
//	    Enabled:  true,
//	}
//
// # Execution Lifecycle
//
// Every run produces an ExecutionRecord that starts as StatusRunning and
// transitions exactly once to a terminal status:
//
//   - StatusSuccess: every phase completed
//   - StatusFailed: no data-mutating effect occurred
//   - StatusPartial: data was mutated but the run did not complete cleanly
//
// Terminal records are immutable. The cached counters on Policy are
// refreshed from completed executions; PolicyStats recomputes the same
// aggregates from tracker rows on demand.
//
// # Archive Safety
//
// When a policy archives, the archive file is fully written, checksummed,
// and atomically published before any deletion begins. An archive failure
// terminates the run as StatusFailed with zero deletions, so the next
// healthy run sees the same expired rows again.
//
// # Errors
//
// All failure categories are typed and matchable with errors.As:
//
//	var verr *retention.ValidationError
//	if errors.As(err, &verr) {
//	    // verr.Field names the offending field
//	}
//
// ValidationError, NotFoundError, ConcurrencyError, ArchiveWriteError,
// DeleteError, and ChecksumMismatchError cover rejected writes, missing
// entities, single-flight refusals, archive failures, deletion failures,
// and archive integrity violations respectively.
package retention
