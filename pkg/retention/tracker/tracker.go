package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// History and archive listing page sizes.
const (
	// DefaultLimit is applied when a query asks for no particular limit.
	DefaultLimit = 50

	// MaxLimit caps any requested page size.
	MaxLimit = 1000
)

// Tracker records the lifecycle and outcome of every policy execution and
// every archive file those executions publish. It is the audit trail the
// management API and CLI read; the cached counters on Policy are derived
// from it.
//
// Implementations must be thread-safe.
type Tracker interface {
	// Begin persists a new execution in the running state. A missing ID is
	// assigned, a zero StartedAt is set to the current time, and the status
	// is forced to running.
	Begin(ctx context.Context, record *retention.ExecutionRecord) error

	// Complete finalizes a running execution with a terminal status.
	// Completing an execution that is already terminal returns a
	// ValidationError; terminal records never change again.
	Complete(ctx context.Context, record *retention.ExecutionRecord) error

	// Get retrieves one execution by ID.
	Get(ctx context.Context, id string) (*retention.ExecutionRecord, error)

	// History lists executions matching the query, newest first by start
	// time.
	History(ctx context.Context, query *retention.HistoryQuery) ([]*retention.ExecutionRecord, error)

	// RecordArchive persists an archive entry. Entries are appended only
	// after the file is durably published, and are immutable.
	RecordArchive(ctx context.Context, entry *retention.ArchiveEntry) error

	// Archives lists archive entries matching the query, newest first,
	// together with count and byte totals over the full matching set.
	Archives(ctx context.Context, query *retention.ArchiveQuery) (*retention.ArchiveListing, error)

	// Stats aggregates execution statistics for one policy from the raw
	// execution rows.
	Stats(ctx context.Context, policyID string) (*retention.PolicyStats, error)

	// Close releases any resources held by the tracker.
	Close() error
}

// normalizeLimit clamps a requested page size into [1, MaxLimit], applying
// DefaultLimit when unset.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// prepareBegin fills defaults on a new execution record and forces the
// running state.
func prepareBegin(record *retention.ExecutionRecord) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = time.Now().UTC()
	}
	record.Status = retention.StatusRunning
	record.CompletedAt = nil
}

// prepareArchive fills defaults on a new archive entry.
func prepareArchive(entry *retention.ArchiveEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
}

// validateCompletion enforces the terminal-status rules shared by all
// backends: the new status must be terminal and the stored record must
// still be running.
func validateCompletion(storedStatus string, record *retention.ExecutionRecord) error {
	if !record.Terminal() {
		return retention.NewValidationError("status",
			"completion status must be terminal, got: "+record.Status)
	}
	if !retention.ValidStatusTransition(storedStatus, record.Status) {
		return retention.NewValidationError("status",
			fmt.Sprintf("execution %s is already terminal (%s)", record.ID, storedStatus))
	}
	return nil
}
