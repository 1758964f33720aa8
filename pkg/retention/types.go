package retention

import (
	"time"
)

// Execution status values for ExecutionRecord.Status.
//
// Every execution starts as StatusRunning and transitions to exactly one
// terminal status. Terminal records are immutable.
const (
	StatusRunning = "running" // Execution in progress
	StatusSuccess = "success" // All phases completed
	StatusFailed  = "failed"  // No data-mutating effect occurred
	StatusPartial = "partial" // Data was mutated but the run did not complete cleanly
)

// Compression mode values for ArchiveSpec.Compression.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// Bounds for Policy.RetentionDays.
const (
	MinRetentionDays = 1
	MaxRetentionDays = 3650
)

// Policy defines how long one category of platform data is kept, whether
// expiring records are archived before deletion, and on what recurrence
// schedule cleanup runs.
type Policy struct {
	// Identity
	ID          string `json:"id" yaml:"id,omitempty"`                             // UUID v4, assigned on create
	Name        string `json:"name" yaml:"name"`                                   // Unique, non-empty, max 128 chars
	Description string `json:"description,omitempty" yaml:"description,omitempty"` // Operator notes

	// Target
	DataType string              `json:"data_type" yaml:"data_type"`             // Record category tag ("telemetry", "alerts", ...)
	Filters  map[string][]string `json:"filters,omitempty" yaml:"filters,omitempty"` // Attribute name -> allowed values; empty matches all

	// Lifecycle
	RetentionDays       int          `json:"retention_days" yaml:"retention_days"` // 1..3650 inclusive
	ArchiveBeforeDelete bool         `json:"archive_before_delete" yaml:"archive_before_delete"`
	Archive             *ArchiveSpec `json:"archive,omitempty" yaml:"archive,omitempty"` // Required iff ArchiveBeforeDelete

	// Recurrence
	Schedule string `json:"schedule" yaml:"schedule"` // 5-field cron expression
	Enabled  bool   `json:"enabled" yaml:"enabled"`

	// Timestamps
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`

	// Lifetime counters. These are cached aggregates maintained by the
	// policy store after each execution; the tracker's Stats operation is
	// the source of truth.
	ExecutionCount       int64      `json:"execution_count" yaml:"-"`
	TotalRecordsDeleted  int64      `json:"total_records_deleted" yaml:"-"`
	TotalRecordsArchived int64      `json:"total_records_archived" yaml:"-"`
	LastExecutedAt       *time.Time `json:"last_executed_at,omitempty" yaml:"-"`
	LastExecutionStatus  string     `json:"last_execution_status,omitempty" yaml:"-"`
}

// ArchiveSpec configures where and how a policy archives expiring records.
type ArchiveSpec struct {
	Destination string `json:"destination" yaml:"destination"` // Directory under the archive root
	Compression string `json:"compression" yaml:"compression"` // "none", "gzip", "zstd"
}

// Clone returns a deep copy of the policy. Stores return clones so callers
// cannot mutate stored state through shared maps.
func (p *Policy) Clone() *Policy {
	c := *p
	if p.Filters != nil {
		c.Filters = make(map[string][]string, len(p.Filters))
		for k, v := range p.Filters {
			vals := make([]string, len(v))
			copy(vals, v)
			c.Filters[k] = vals
		}
	}
	if p.Archive != nil {
		spec := *p.Archive
		c.Archive = &spec
	}
	if p.LastExecutedAt != nil {
		t := *p.LastExecutedAt
		c.LastExecutedAt = &t
	}
	return &c
}

// Cutoff returns the expiry boundary for this policy at exec time now:
// records with a timestamp strictly older than the cutoff are expired.
func (p *Policy) Cutoff(now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, -p.RetentionDays)
}

// PolicyFilter narrows List results.
type PolicyFilter struct {
	Enabled  *bool  `json:"enabled,omitempty"`   // Filter by enabled flag
	DataType string `json:"data_type,omitempty"` // Filter by data type tag
}

// ExecutionRecord is the audit trail for a single policy execution.
// It transitions running -> exactly one of success/failed/partial and is
// immutable once terminal.
type ExecutionRecord struct {
	// Identity
	ID         string `json:"id"` // UUID v4
	PolicyID   string `json:"policy_id"`
	PolicyName string `json:"policy_name"`
	DataType   string `json:"data_type"`

	// Timestamps
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Outcome
	Status     string `json:"status"` // running, success, failed, partial
	Error      string `json:"error,omitempty"`
	DryRun     bool   `json:"dry_run"`
	DurationMS int64  `json:"duration_ms"`

	// Effects
	RecordsEvaluated int64  `json:"records_evaluated"`
	RecordsArchived  int64  `json:"records_archived"`
	RecordsDeleted   int64  `json:"records_deleted"`
	ArchiveID        string `json:"archive_id,omitempty"` // Set iff an archive entry was produced
}

// Terminal reports whether the execution has reached a terminal status.
func (e *ExecutionRecord) Terminal() bool {
	switch e.Status {
	case StatusSuccess, StatusFailed, StatusPartial:
		return true
	}
	return false
}

// Clone returns a copy of the execution record.
func (e *ExecutionRecord) Clone() *ExecutionRecord {
	c := *e
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// ValidStatusTransition reports whether an execution may move from one
// status to another. The only legal transitions are running to a terminal
// status.
func ValidStatusTransition(from, to string) bool {
	if from != StatusRunning {
		return false
	}
	switch to {
	case StatusSuccess, StatusFailed, StatusPartial:
		return true
	}
	return false
}

// ArchiveEntry describes one published archive file. Entries are written
// only after the file is durably published and are immutable afterwards.
type ArchiveEntry struct {
	ID          string    `json:"id"` // UUID v4
	PolicyID    string    `json:"policy_id"`
	ExecutionID string    `json:"execution_id"`
	DataType    string    `json:"data_type"`
	Path        string    `json:"path"`         // Final published path
	RecordCount int64     `json:"record_count"` // Records written
	SizeBytes   int64     `json:"size_bytes"`   // Final file size
	Compression string    `json:"compression"`  // none, gzip, zstd
	Checksum    string    `json:"checksum"`     // SHA-256 hex of final file bytes
	CreatedAt   time.Time `json:"created_at"`
}

// Clone returns a copy of the archive entry.
func (a *ArchiveEntry) Clone() *ArchiveEntry {
	c := *a
	return &c
}

// HistoryQuery filters execution history. Results are returned newest
// first (by StartedAt).
type HistoryQuery struct {
	PolicyID string `json:"policy_id,omitempty"` // Filter by policy
	Status   string `json:"status,omitempty"`    // Filter by terminal status
	Limit    int    `json:"limit,omitempty"`     // Default 50, max 1000
}

// ArchiveQuery filters archive listings. Results are returned newest first.
type ArchiveQuery struct {
	DataType string `json:"data_type,omitempty"` // Filter by data type tag
	Limit    int    `json:"limit,omitempty"`     // Default 50, max 1000
}

// ArchiveListing is a page of archive entries plus aggregate totals over
// the full matching set, not just the returned page.
type ArchiveListing struct {
	Entries        []*ArchiveEntry `json:"entries"`
	TotalCount     int64           `json:"total_count"`
	TotalSizeBytes int64           `json:"total_size_bytes"`
}

// PolicyStats carries aggregates computed from execution history. Unlike
// the cached counters on Policy, these are recomputed from tracker rows on
// every call.
type PolicyStats struct {
	PolicyID             string     `json:"policy_id"`
	Executions           int64      `json:"executions"`
	Succeeded            int64      `json:"succeeded"`
	Failed               int64      `json:"failed"`
	Partial              int64      `json:"partial"`
	DryRuns              int64      `json:"dry_runs"`
	TotalRecordsDeleted  int64      `json:"total_records_deleted"`
	TotalRecordsArchived int64      `json:"total_records_archived"`
	AvgDurationMS        int64      `json:"avg_duration_ms"`
	LastExecutedAt       *time.Time `json:"last_executed_at,omitempty"`
	LastExecutionStatus  string     `json:"last_execution_status,omitempty"`
}
