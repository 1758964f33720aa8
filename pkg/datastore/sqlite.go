package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig configures the SQLite record store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:               "data/records.db",
		BusyTimeout:        5 * time.Second,
		CheckpointInterval: 5 * time.Minute,
	}
}

// SQLiteStore implements the Store interface using SQLite. It uses a
// write-ahead log for concurrent performance and periodic checkpointing to
// balance write throughput with durability.
type SQLiteStore struct {
	db        *sql.DB
	config    *SQLiteConfig
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once

	insertStmt *sql.Stmt
}

// NewSQLiteStore creates a new SQLite record store and initializes its
// schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if config.CheckpointInterval == 0 {
		config.CheckpointInterval = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		config.Path, int(config.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open record database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "datastore.sqlite"),
		done:   make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize record schema: %w", err)
	}

	s.insertStmt, err = db.Prepare(`
		INSERT INTO records (id, data_type, ts, attributes, payload)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare insert statement: %w", err)
	}

	go s.checkpointLoop()

	s.logger.Info("SQLite record store initialized", "path", config.Path)

	return s, nil
}

// initSchema creates the database schema if it doesn't exist. Timestamps
// are stored as Unix nanoseconds so range comparisons stay exact.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		data_type TEXT NOT NULL,
		ts INTEGER NOT NULL,
		attributes TEXT,
		payload BLOB
	);

	CREATE INDEX IF NOT EXISTS idx_records_type_ts ON records(data_type, ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert persists a record.
func (s *SQLiteStore) Insert(ctx context.Context, record *Record) error {
	if record.ID == "" {
		return fmt.Errorf("record ID must not be empty")
	}

	var attributes interface{}
	if len(record.Attributes) > 0 {
		data, err := json.Marshal(record.Attributes)
		if err != nil {
			return fmt.Errorf("marshal attributes: %w", err)
		}
		attributes = string(data)
	}

	_, err := s.insertStmt.ExecContext(ctx,
		record.ID,
		record.DataType,
		record.Timestamp.UTC().UnixNano(),
		attributes,
		record.Payload,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}

// Count returns the number of records matching the selection.
func (s *SQLiteStore) Count(ctx context.Context, sel *Selection) (int64, error) {
	where, args := buildWhere(sel)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}

	return count, nil
}

// SelectStream returns a channel of matching records ordered by timestamp
// ascending.
func (s *SQLiteStore) SelectStream(ctx context.Context, sel *Selection) (<-chan *Record, <-chan error, error) {
	recordsCh := make(chan *Record, 100)
	errCh := make(chan error, 1)

	where, args := buildWhere(sel)
	query := "SELECT id, data_type, ts, attributes, payload FROM records WHERE " + where + " ORDER BY ts ASC"

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			errCh <- fmt.Errorf("stream records: %w", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			record, err := scanRecord(rows)
			if err != nil {
				errCh <- fmt.Errorf("scan record: %w", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- fmt.Errorf("stream records: %w", err)
		}
	}()

	return recordsCh, errCh, nil
}

// Delete removes records matching the selection, evaluated at delete time
// in a single statement.
func (s *SQLiteStore) Delete(ctx context.Context, sel *Selection) (int64, error) {
	where, args := buildWhere(sel)

	result, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}

	return deleted, nil
}

// Close releases resources held by the store.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.insertStmt != nil {
			s.insertStmt.Close()
		}

		if s.db != nil {
			// Run final checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.config.CheckpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}

// buildWhere builds the WHERE clause for a selection. Attribute filters are
// evaluated in SQL with json_extract so Delete re-checks the full predicate
// at delete time.
func buildWhere(sel *Selection) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if sel.DataType != "" {
		conditions = append(conditions, "data_type = ?")
		args = append(args, sel.DataType)
	}
	if !sel.Before.IsZero() {
		conditions = append(conditions, "ts < ?")
		args = append(args, sel.Before.UTC().UnixNano())
	}

	// Sort attribute names so the generated SQL is deterministic
	attrs := make([]string, 0, len(sel.Filters))
	for attr := range sel.Filters {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		allowed := sel.Filters[attr]
		if len(allowed) == 0 {
			conditions = append(conditions, "1 = 0")
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(allowed)), ", ")
		conditions = append(conditions, fmt.Sprintf("json_extract(attributes, ?) IN (%s)", placeholders))
		args = append(args, `$."`+attr+`"`)
		for _, v := range allowed {
			args = append(args, v)
		}
	}

	if len(conditions) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conditions, " AND "), args
}

// scanRecord scans a database row into a Record.
func scanRecord(rows *sql.Rows) (*Record, error) {
	var record Record
	var ts int64
	var attributes sql.NullString

	err := rows.Scan(&record.ID, &record.DataType, &ts, &attributes, &record.Payload)
	if err != nil {
		return nil, err
	}

	record.Timestamp = time.Unix(0, ts).UTC()
	if attributes.Valid && attributes.String != "" {
		if err := json.Unmarshal([]byte(attributes.String), &record.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}

	return &record, nil
}
