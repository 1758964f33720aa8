package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// SQLiteConfig contains configuration for the SQLite tracker. The default
// path matches the policy store's so both live in one database file.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite tracker configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/retention.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteTracker implements the Tracker interface using SQLite.
type SQLiteTracker struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteTracker creates a new SQLite tracker. It initializes the tracker
// schema and enables WAL mode if configured; sharing a file with the policy
// store is safe because each owns its own tables and version bookkeeping.
func NewSQLiteTracker(config *SQLiteConfig) (*SQLiteTracker, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "retention.tracker.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("open tracker database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	t := &SQLiteTracker{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := t.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite tracker initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return t, nil
}

// initialize sets up the database schema and enables WAL mode.
func (t *SQLiteTracker) initialize() error {
	if t.config.WALMode {
		if _, err := t.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	busyTimeoutMs := t.config.BusyTimeout.Milliseconds()
	if _, err := t.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := t.db.Exec(Schema); err != nil {
		return fmt.Errorf("create tracker schema: %w", err)
	}

	if _, err := t.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}

	var version int
	err := t.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("get schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// Begin persists a new execution in the running state.
func (t *SQLiteTracker) Begin(ctx context.Context, record *retention.ExecutionRecord) error {
	prepareBegin(record)

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO executions (
			id, policy_id, policy_name, data_type,
			started_at, completed_at,
			status, error, dry_run, duration_ms,
			records_evaluated, records_archived, records_deleted, archive_id
		) VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.PolicyID, record.PolicyName, record.DataType,
		record.StartedAt,
		record.Status, record.Error, record.DryRun, record.DurationMS,
		record.RecordsEvaluated, record.RecordsArchived, record.RecordsDeleted,
		nullableString(record.ArchiveID),
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// Complete finalizes a running execution with a terminal status. The UPDATE
// is guarded on the stored status so concurrent completers cannot overwrite
// a terminal record.
func (t *SQLiteTracker) Complete(ctx context.Context, record *retention.ExecutionRecord) error {
	var storedStatus string
	err := t.db.QueryRowContext(ctx,
		"SELECT status FROM executions WHERE id = ?", record.ID).Scan(&storedStatus)
	if err == sql.ErrNoRows {
		return retention.NewNotFoundError("execution", record.ID)
	}
	if err != nil {
		return fmt.Errorf("get execution status: %w", err)
	}
	if err := validateCompletion(storedStatus, record); err != nil {
		return err
	}

	if record.CompletedAt == nil {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}

	result, err := t.db.ExecContext(ctx, `
		UPDATE executions SET
			completed_at = ?,
			status = ?, error = ?, duration_ms = ?,
			records_evaluated = ?, records_archived = ?, records_deleted = ?,
			archive_id = ?
		WHERE id = ? AND status = ?
	`,
		*record.CompletedAt,
		record.Status, record.Error, record.DurationMS,
		record.RecordsEvaluated, record.RecordsArchived, record.RecordsDeleted,
		nullableString(record.ArchiveID),
		record.ID, retention.StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete execution: %w", err)
	}
	if affected == 0 {
		return retention.NewValidationError("status",
			fmt.Sprintf("execution %s is already terminal", record.ID))
	}
	return nil
}

// Get retrieves one execution by ID.
func (t *SQLiteTracker) Get(ctx context.Context, id string) (*retention.ExecutionRecord, error) {
	rows, err := t.db.QueryContext(ctx, selectExecution+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get execution: %w", err)
		}
		return nil, retention.NewNotFoundError("execution", id)
	}
	return scanExecution(rows)
}

// History lists executions matching the query, newest first.
func (t *SQLiteTracker) History(ctx context.Context, query *retention.HistoryQuery) ([]*retention.ExecutionRecord, error) {
	if query == nil {
		query = &retention.HistoryQuery{}
	}

	sqlQuery := selectExecution
	var conditions []string
	var args []interface{}

	if query.PolicyID != "" {
		conditions = append(conditions, "policy_id = ?")
		args = append(args, query.PolicyID)
	}
	if query.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, query.Status)
	}
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlQuery += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, normalizeLimit(query.Limit))

	rows, err := t.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	records := []*retention.ExecutionRecord{}
	for rows.Next() {
		record, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("list executions: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return records, nil
}

// RecordArchive persists an archive entry.
func (t *SQLiteTracker) RecordArchive(ctx context.Context, entry *retention.ArchiveEntry) error {
	prepareArchive(entry)

	_, err := t.db.ExecContext(ctx, `
		INSERT INTO archive_entries (
			id, policy_id, execution_id, data_type,
			path, record_count, size_bytes, compression, checksum,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.PolicyID, entry.ExecutionID, entry.DataType,
		entry.Path, entry.RecordCount, entry.SizeBytes, entry.Compression, entry.Checksum,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert archive entry: %w", err)
	}
	return nil
}

// Archives lists archive entries newest first. Totals are computed over the
// full matching set in a second aggregate query, not over the page.
func (t *SQLiteTracker) Archives(ctx context.Context, query *retention.ArchiveQuery) (*retention.ArchiveListing, error) {
	if query == nil {
		query = &retention.ArchiveQuery{}
	}

	where := ""
	var whereArgs []interface{}
	if query.DataType != "" {
		where = " WHERE data_type = ?"
		whereArgs = append(whereArgs, query.DataType)
	}

	listing := &retention.ArchiveListing{Entries: []*retention.ArchiveEntry{}}
	err := t.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM archive_entries"+where,
		whereArgs...,
	).Scan(&listing.TotalCount, &listing.TotalSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("aggregate archives: %w", err)
	}

	pageArgs := append(append([]interface{}{}, whereArgs...), normalizeLimit(query.Limit))
	rows, err := t.db.QueryContext(ctx,
		selectArchive+where+" ORDER BY created_at DESC, id DESC LIMIT ?",
		pageArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("list archives: %w", err)
		}
		listing.Entries = append(listing.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	return listing, nil
}

// Stats aggregates execution statistics for one policy from the raw rows.
func (t *SQLiteTracker) Stats(ctx context.Context, policyID string) (*retention.PolicyStats, error) {
	stats := &retention.PolicyStats{PolicyID: policyID}

	var avgDuration float64
	err := t.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN dry_run THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(records_deleted), 0),
			COALESCE(SUM(records_archived), 0),
			COALESCE(AVG(CASE WHEN completed_at IS NOT NULL THEN duration_ms END), 0)
		FROM executions WHERE policy_id = ?
	`,
		retention.StatusSuccess, retention.StatusFailed, retention.StatusPartial,
		policyID,
	).Scan(
		&stats.Executions,
		&stats.Succeeded, &stats.Failed, &stats.Partial,
		&stats.DryRuns,
		&stats.TotalRecordsDeleted, &stats.TotalRecordsArchived,
		&avgDuration,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}
	stats.AvgDurationMS = int64(avgDuration)

	var startedAt time.Time
	var status string
	err = t.db.QueryRowContext(ctx, `
		SELECT started_at, status FROM executions
		WHERE policy_id = ?
		ORDER BY started_at DESC, id DESC LIMIT 1
	`, policyID).Scan(&startedAt, &status)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get last execution: %w", err)
	}
	if err == nil {
		at := startedAt.UTC()
		stats.LastExecutedAt = &at
		stats.LastExecutionStatus = status
	}

	return stats, nil
}

// Close releases resources held by the tracker.
func (t *SQLiteTracker) Close() error {
	if err := t.db.Close(); err != nil {
		return fmt.Errorf("close tracker database: %w", err)
	}
	t.logger.Info("SQLite tracker closed")
	return nil
}

const selectExecution = `
	SELECT id, policy_id, policy_name, data_type,
		started_at, completed_at,
		status, error, dry_run, duration_ms,
		records_evaluated, records_archived, records_deleted, archive_id
	FROM executions`

const selectArchive = `
	SELECT id, policy_id, execution_id, data_type,
		path, record_count, size_bytes, compression, checksum,
		created_at
	FROM archive_entries`

// scanExecution scans a database row into an ExecutionRecord.
func scanExecution(rows *sql.Rows) (*retention.ExecutionRecord, error) {
	var record retention.ExecutionRecord
	var completedAt sql.NullTime
	var errMsg, archiveID sql.NullString

	err := rows.Scan(
		&record.ID, &record.PolicyID, &record.PolicyName, &record.DataType,
		&record.StartedAt, &completedAt,
		&record.Status, &errMsg, &record.DryRun, &record.DurationMS,
		&record.RecordsEvaluated, &record.RecordsArchived, &record.RecordsDeleted,
		&archiveID,
	)
	if err != nil {
		return nil, err
	}

	record.StartedAt = record.StartedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		record.CompletedAt = &t
	}
	record.Error = errMsg.String
	record.ArchiveID = archiveID.String
	return &record, nil
}

// scanArchive scans a database row into an ArchiveEntry.
func scanArchive(rows *sql.Rows) (*retention.ArchiveEntry, error) {
	var entry retention.ArchiveEntry
	err := rows.Scan(
		&entry.ID, &entry.PolicyID, &entry.ExecutionID, &entry.DataType,
		&entry.Path, &entry.RecordCount, &entry.SizeBytes, &entry.Compression, &entry.Checksum,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

// nullableString maps "" to NULL for optional columns.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
