package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// SQLiteConfig contains configuration for the SQLite policy store.
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

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/retention.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite policy store.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "retention.policy.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("open policy database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite policy store initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("create policy schema: %w", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("get schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// Create validates and persists a new policy.
func (s *SQLiteStore) Create(ctx context.Context, p *retention.Policy) error {
	if err := Validate(p); err != nil {
		return err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM policies WHERE name = ?", p.Name).Scan(&count)
	if err != nil {
		return fmt.Errorf("check policy name: %w", err)
	}
	if count > 0 {
		return retention.NewValidationError("name", "policy name already in use: "+p.Name)
	}

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	filters, err := marshalFilters(p.Filters)
	if err != nil {
		return err
	}
	dest, comp := archiveColumns(p)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policies (
			id, name, description,
			data_type, filters,
			retention_days, archive_before_delete, archive_destination, archive_compression,
			schedule, enabled,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.Name, p.Description,
		p.DataType, filters,
		p.RetentionDays, p.ArchiveBeforeDelete, dest, comp,
		p.Schedule, p.Enabled,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}

	return nil
}

// Update validates and replaces an existing policy definition. Lifetime
// counters are left untouched.
func (s *SQLiteStore) Update(ctx context.Context, p *retention.Policy) error {
	if err := Validate(p); err != nil {
		return err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM policies WHERE name = ? AND id != ?", p.Name, p.ID).Scan(&count)
	if err != nil {
		return fmt.Errorf("check policy name: %w", err)
	}
	if count > 0 {
		return retention.NewValidationError("name", "policy name already in use: "+p.Name)
	}

	filters, err := marshalFilters(p.Filters)
	if err != nil {
		return err
	}
	dest, comp := archiveColumns(p)
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE policies SET
			name = ?, description = ?,
			data_type = ?, filters = ?,
			retention_days = ?, archive_before_delete = ?,
			archive_destination = ?, archive_compression = ?,
			schedule = ?, enabled = ?,
			updated_at = ?
		WHERE id = ?
	`,
		p.Name, p.Description,
		p.DataType, filters,
		p.RetentionDays, p.ArchiveBeforeDelete,
		dest, comp,
		p.Schedule, p.Enabled,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update policy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update policy: %w", err)
	}
	if affected == 0 {
		return retention.NewNotFoundError("policy", p.ID)
	}

	return nil
}

// Get retrieves a policy by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*retention.Policy, error) {
	rows, err := s.db.QueryContext(ctx, selectPolicy+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get policy: %w", err)
		}
		return nil, retention.NewNotFoundError("policy", id)
	}
	return scanPolicy(rows)
}

// GetByName retrieves a policy by its unique name.
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (*retention.Policy, error) {
	rows, err := s.db.QueryContext(ctx, selectPolicy+" WHERE name = ?", name)
	if err != nil {
		return nil, fmt.Errorf("get policy by name: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get policy by name: %w", err)
		}
		return nil, retention.NewNotFoundError("policy", name)
	}
	return scanPolicy(rows)
}

// List retrieves policies matching the filter, sorted by name.
func (s *SQLiteStore) List(ctx context.Context, filter *retention.PolicyFilter) ([]*retention.Policy, error) {
	query := selectPolicy
	var conditions []string
	var args []interface{}

	if filter != nil {
		if filter.Enabled != nil {
			conditions = append(conditions, "enabled = ?")
			args = append(args, *filter.Enabled)
		}
		if filter.DataType != "" {
			conditions = append(conditions, "data_type = ?")
			args = append(args, filter.DataType)
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	policies := []*retention.Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("list policies: %w", err)
		}
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}

	return policies, nil
}

// Delete removes a policy by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM policies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete policy: %w", err)
	}
	if affected == 0 {
		return retention.NewNotFoundError("policy", id)
	}

	return nil
}

// RecordExecution folds one completed execution into the policy's lifetime
// counters in a single UPDATE, so the increments are atomic.
func (s *SQLiteStore) RecordExecution(ctx context.Context, policyID, status string, archived, deleted int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE policies SET
			execution_count = execution_count + 1,
			total_records_archived = total_records_archived + ?,
			total_records_deleted = total_records_deleted + ?,
			last_executed_at = ?,
			last_execution_status = ?
		WHERE id = ?
	`, archived, deleted, at.UTC(), status, policyID)
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record execution: %w", err)
	}
	if affected == 0 {
		return retention.NewNotFoundError("policy", policyID)
	}

	return nil
}

// Close releases resources held by the store.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close policy database: %w", err)
	}
	s.logger.Info("SQLite policy store closed")
	return nil
}

const selectPolicy = `
	SELECT id, name, description,
		data_type, filters,
		retention_days, archive_before_delete, archive_destination, archive_compression,
		schedule, enabled,
		created_at, updated_at,
		execution_count, total_records_deleted, total_records_archived,
		last_executed_at, last_execution_status
	FROM policies`

// scanPolicy scans a database row into a Policy.
func scanPolicy(rows *sql.Rows) (*retention.Policy, error) {
	var p retention.Policy
	var description, filters, dest, comp, lastStatus sql.NullString
	var lastExecuted sql.NullTime

	err := rows.Scan(
		&p.ID, &p.Name, &description,
		&p.DataType, &filters,
		&p.RetentionDays, &p.ArchiveBeforeDelete, &dest, &comp,
		&p.Schedule, &p.Enabled,
		&p.CreatedAt, &p.UpdatedAt,
		&p.ExecutionCount, &p.TotalRecordsDeleted, &p.TotalRecordsArchived,
		&lastExecuted, &lastStatus,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	if filters.Valid && filters.String != "" {
		if err := json.Unmarshal([]byte(filters.String), &p.Filters); err != nil {
			return nil, fmt.Errorf("unmarshal filters: %w", err)
		}
	}
	if p.ArchiveBeforeDelete {
		p.Archive = &retention.ArchiveSpec{
			Destination: dest.String,
			Compression: comp.String,
		}
	}
	if lastExecuted.Valid {
		t := lastExecuted.Time.UTC()
		p.LastExecutedAt = &t
	}
	p.LastExecutionStatus = lastStatus.String
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}

// marshalFilters serializes the filter map as JSON for storage.
func marshalFilters(filters map[string][]string) (interface{}, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("marshal filters: %w", err)
	}
	return string(data), nil
}

// archiveColumns flattens the optional archive spec into nullable columns.
func archiveColumns(p *retention.Policy) (dest, comp interface{}) {
	if p.Archive == nil {
		return nil, nil
	}
	return p.Archive.Destination, p.Archive.Compression
}
