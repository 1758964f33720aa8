package tracker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// MemoryTracker implements the Tracker interface with in-memory storage.
// Intended for tests and ephemeral deployments; nothing survives a restart.
type MemoryTracker struct {
	mu         sync.RWMutex
	executions map[string]*retention.ExecutionRecord
	archives   []*retention.ArchiveEntry
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		executions: make(map[string]*retention.ExecutionRecord),
	}
}

// Begin persists a new execution in the running state.
func (t *MemoryTracker) Begin(ctx context.Context, record *retention.ExecutionRecord) error {
	prepareBegin(record)

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.executions[record.ID]; exists {
		return retention.NewValidationError("id", "execution already recorded: "+record.ID)
	}
	t.executions[record.ID] = record.Clone()
	return nil
}

// Complete finalizes a running execution with a terminal status.
func (t *MemoryTracker) Complete(ctx context.Context, record *retention.ExecutionRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	stored, exists := t.executions[record.ID]
	if !exists {
		return retention.NewNotFoundError("execution", record.ID)
	}
	if err := validateCompletion(stored.Status, record); err != nil {
		return err
	}
	if record.CompletedAt == nil {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	t.executions[record.ID] = record.Clone()
	return nil
}

// Get retrieves one execution by ID.
func (t *MemoryTracker) Get(ctx context.Context, id string) (*retention.ExecutionRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	record, exists := t.executions[id]
	if !exists {
		return nil, retention.NewNotFoundError("execution", id)
	}
	return record.Clone(), nil
}

// History lists executions matching the query, newest first.
func (t *MemoryTracker) History(ctx context.Context, query *retention.HistoryQuery) ([]*retention.ExecutionRecord, error) {
	if query == nil {
		query = &retention.HistoryQuery{}
	}
	limit := normalizeLimit(query.Limit)

	t.mu.RLock()
	matched := make([]*retention.ExecutionRecord, 0, len(t.executions))
	for _, record := range t.executions {
		if query.PolicyID != "" && record.PolicyID != query.PolicyID {
			continue
		}
		if query.Status != "" && record.Status != query.Status {
			continue
		}
		matched = append(matched, record.Clone())
	}
	t.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartedAt.Equal(matched[j].StartedAt) {
			return matched[i].StartedAt.After(matched[j].StartedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// RecordArchive persists an archive entry.
func (t *MemoryTracker) RecordArchive(ctx context.Context, entry *retention.ArchiveEntry) error {
	prepareArchive(entry)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.archives = append(t.archives, entry.Clone())
	return nil
}

// Archives lists archive entries newest first with totals over the full
// matching set.
func (t *MemoryTracker) Archives(ctx context.Context, query *retention.ArchiveQuery) (*retention.ArchiveListing, error) {
	if query == nil {
		query = &retention.ArchiveQuery{}
	}
	limit := normalizeLimit(query.Limit)

	t.mu.RLock()
	matched := make([]*retention.ArchiveEntry, 0, len(t.archives))
	for _, entry := range t.archives {
		if query.DataType != "" && entry.DataType != query.DataType {
			continue
		}
		matched = append(matched, entry.Clone())
	}
	t.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	listing := &retention.ArchiveListing{
		TotalCount: int64(len(matched)),
	}
	for _, entry := range matched {
		listing.TotalSizeBytes += entry.SizeBytes
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	listing.Entries = matched
	return listing, nil
}

// Stats aggregates execution statistics for one policy.
func (t *MemoryTracker) Stats(ctx context.Context, policyID string) (*retention.PolicyStats, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := &retention.PolicyStats{PolicyID: policyID}
	var durationTotal int64
	var completed int64
	var newest *retention.ExecutionRecord

	for _, record := range t.executions {
		if record.PolicyID != policyID {
			continue
		}
		stats.Executions++
		switch record.Status {
		case retention.StatusSuccess:
			stats.Succeeded++
		case retention.StatusFailed:
			stats.Failed++
		case retention.StatusPartial:
			stats.Partial++
		}
		if record.DryRun {
			stats.DryRuns++
		}
		stats.TotalRecordsDeleted += record.RecordsDeleted
		stats.TotalRecordsArchived += record.RecordsArchived
		if record.CompletedAt != nil {
			durationTotal += record.DurationMS
			completed++
		}
		if newest == nil || record.StartedAt.After(newest.StartedAt) {
			newest = record
		}
	}

	if completed > 0 {
		stats.AvgDurationMS = durationTotal / completed
	}
	if newest != nil {
		at := newest.StartedAt
		stats.LastExecutedAt = &at
		stats.LastExecutionStatus = newest.Status
	}
	return stats, nil
}

// Close releases resources (no-op for memory tracker).
func (t *MemoryTracker) Close() error {
	return nil
}

// Clear removes all records. Intended for testing.
func (t *MemoryTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.executions = make(map[string]*retention.ExecutionRecord)
	t.archives = nil
}

// Size returns the number of stored executions. Intended for testing.
func (t *MemoryTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.executions)
}
