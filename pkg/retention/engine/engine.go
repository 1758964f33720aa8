package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/datastore"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/archive"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/policy"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/tracker"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/metrics"
)

// completionWriteTimeout bounds the detached tracker and policy-counter
// writes that finalize an execution.
const completionWriteTimeout = 5 * time.Second

// Engine executes retention policies against the hot datastore. It is
// thread-safe and can run multiple policy executions concurrently; the
// scheduler bounds that concurrency, not the engine.
type Engine struct {
	policies policy.Store
	registry *datastore.Registry
	archiver *archive.Writer
	tracker  tracker.Tracker
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New creates an execution engine wired to the given stores and collectors.
func New(policies policy.Store, registry *datastore.Registry, archiver *archive.Writer, trk tracker.Tracker, collector *metrics.Collector) *Engine {
	return &Engine{
		policies: policies,
		registry: registry,
		archiver: archiver,
		tracker:  trk,
		metrics:  collector,
		logger:   slog.Default().With("component", "retention.engine"),
	}
}

// Execute runs one policy to completion and returns its execution record.
//
// The record is tracked from running to exactly one terminal status; the
// outcome of the run, including failures, is carried in the record's Status
// and Error fields. Execute returns a non-nil error only when no execution
// record could be produced at all (tracking could not begin).
//
// A dry run evaluates the selection and reports the matching count without
// archiving or deleting anything.
func (e *Engine) Execute(ctx context.Context, pol *retention.Policy, dryRun bool) (*retention.ExecutionRecord, error) {
	record := &retention.ExecutionRecord{
		PolicyID:   pol.ID,
		PolicyName: pol.Name,
		DataType:   pol.DataType,
		StartedAt:  time.Now().UTC(),
		Status:     retention.StatusRunning,
		DryRun:     dryRun,
	}

	if err := e.tracker.Begin(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to begin execution tracking: %w", err)
	}

	e.logger.Debug("execution started",
		"execution_id", record.ID,
		"policy_id", pol.ID,
		"policy", pol.Name,
		"data_type", pol.DataType,
		"dry_run", dryRun)

	// Cancel the record stream when the run bails out early, so a datastore
	// producer blocked on a full channel can exit.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	archiveBytes := e.run(runCtx, pol, record)

	completedAt := time.Now().UTC()
	record.CompletedAt = &completedAt
	record.DurationMS = completedAt.Sub(record.StartedAt).Milliseconds()

	// Completion writes run on a detached context: a run aborted by caller
	// cancellation must still reach a terminal status instead of sitting in
	// the tracker as running forever.
	completeCtx, completeCancel := context.WithTimeout(context.Background(), completionWriteTimeout)
	defer completeCancel()

	if err := e.tracker.Complete(completeCtx, record); err != nil {
		e.logger.Error("failed to persist execution completion",
			"execution_id", record.ID,
			"policy_id", pol.ID,
			"status", record.Status,
			"error", err)
	}
	if err := e.policies.RecordExecution(completeCtx, pol.ID, record.Status, record.RecordsArchived, record.RecordsDeleted, completedAt); err != nil {
		e.logger.Error("failed to update policy counters",
			"execution_id", record.ID,
			"policy_id", pol.ID,
			"error", err)
	}

	e.metrics.RecordExecution(pol.Name, pol.DataType, record.Status,
		completedAt.Sub(record.StartedAt),
		record.RecordsDeleted, record.RecordsArchived, archiveBytes)

	args := []any{
		"execution_id", record.ID,
		"policy_id", pol.ID,
		"policy", pol.Name,
		"data_type", pol.DataType,
		"status", record.Status,
		"dry_run", record.DryRun,
		"records_evaluated", record.RecordsEvaluated,
		"records_archived", record.RecordsArchived,
		"records_deleted", record.RecordsDeleted,
		"duration_ms", record.DurationMS,
	}
	if record.Error != "" {
		args = append(args, "error", record.Error)
	}
	e.logger.Info("execution completed", args...)

	return record, nil
}

// run performs the phases of a single execution, mutating the record's
// status, error, and effect counts in place. It returns the size of the
// published archive file for metrics, zero when none was produced.
func (e *Engine) run(ctx context.Context, pol *retention.Policy, record *retention.ExecutionRecord) int64 {
	handler, err := e.registry.Lookup(pol.DataType)
	if err != nil {
		record.Status = retention.StatusFailed
		record.Error = err.Error()
		return 0
	}
	store := handler.Store

	// The cutoff is fixed at execution start, so records aging past it
	// mid-run wait for the next schedule.
	cutoff := pol.Cutoff(record.StartedAt)
	sel := &datastore.Selection{
		DataType: pol.DataType,
		Before:   cutoff,
		Filters:  pol.Filters,
	}

	count, err := store.Count(ctx, sel)
	if err != nil {
		record.Status = retention.StatusFailed
		record.Error = fmt.Sprintf("failed to count expired records: %v", err)
		return 0
	}
	record.RecordsEvaluated = count

	e.logger.Debug("selection evaluated",
		"execution_id", record.ID,
		"policy_id", pol.ID,
		"cutoff", cutoff,
		"records_evaluated", count)

	if count == 0 {
		record.Status = retention.StatusSuccess
		return 0
	}

	if record.DryRun {
		record.Status = retention.StatusSuccess
		return 0
	}

	var archiveBytes int64
	if pol.ArchiveBeforeDelete {
		if pol.Archive == nil {
			record.Status = retention.StatusFailed
			record.Error = "archive_before_delete is set but the policy has no archive spec"
			return 0
		}

		records, errs, err := store.SelectStream(ctx, sel)
		if err != nil {
			record.Status = retention.StatusFailed
			record.Error = fmt.Sprintf("failed to open record stream: %v", err)
			return 0
		}

		result, err := e.archiver.Write(ctx, &archive.Request{
			Destination: pol.Archive.Destination,
			DataType:    pol.DataType,
			ExecutionID: record.ID,
			Compression: pol.Archive.Compression,
		}, records, errs)
		if err != nil {
			record.Status = retention.StatusFailed
			record.Error = err.Error()
			return 0
		}

		// The entry must be durable before any deletion: an archive the
		// tracker does not know about is unrecoverable by operators.
		entry := &retention.ArchiveEntry{
			PolicyID:    pol.ID,
			ExecutionID: record.ID,
			DataType:    pol.DataType,
			Path:        result.Path,
			RecordCount: result.RecordCount,
			SizeBytes:   result.SizeBytes,
			Compression: result.Compression,
			Checksum:    result.Checksum,
		}
		if err := e.tracker.RecordArchive(ctx, entry); err != nil {
			record.Status = retention.StatusFailed
			record.Error = fmt.Sprintf("failed to record archive entry: %v", err)
			e.logger.Error("archive file published but entry not recorded, skipping delete",
				"execution_id", record.ID,
				"path", result.Path,
				"error", err)
			return 0
		}
		record.RecordsArchived = result.RecordCount
		record.ArchiveID = entry.ID
		archiveBytes = result.SizeBytes

		e.logger.Debug("archive published",
			"execution_id", record.ID,
			"archive_id", entry.ID,
			"path", result.Path,
			"records_archived", result.RecordCount,
			"size_bytes", result.SizeBytes)
	}

	// Deletion re-evaluates the predicate at delete time rather than
	// replaying IDs from the archive stream.
	deleted, err := store.Delete(ctx, sel)
	record.RecordsDeleted = deleted
	if err != nil {
		record.Error = retention.NewDeleteError(pol.DataType, err).Error()
		if deleted > 0 || record.ArchiveID != "" {
			record.Status = retention.StatusPartial
		} else {
			record.Status = retention.StatusFailed
		}
		return archiveBytes
	}

	record.Status = retention.StatusSuccess
	return archiveBytes
}
