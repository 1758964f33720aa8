package tracker

// SchemaVersion is the current tracker database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the tracker schema. The
// tracker shares a database file with the policy store, so its version
// bookkeeping lives in its own table.
const Schema = `
-- Execution audit trail
CREATE TABLE IF NOT EXISTS executions (
    id TEXT PRIMARY KEY,
    policy_id TEXT NOT NULL,
    policy_name TEXT NOT NULL,
    data_type TEXT NOT NULL,

    -- Timestamps
    started_at TIMESTAMP NOT NULL,
    completed_at TIMESTAMP,

    -- Outcome
    status TEXT NOT NULL,
    error TEXT,
    dry_run BOOLEAN NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,

    -- Effects
    records_evaluated INTEGER NOT NULL DEFAULT 0,
    records_archived INTEGER NOT NULL DEFAULT 0,
    records_deleted INTEGER NOT NULL DEFAULT 0,
    archive_id TEXT
);

-- Published archive files
CREATE TABLE IF NOT EXISTS archive_entries (
    id TEXT PRIMARY KEY,
    policy_id TEXT NOT NULL,
    execution_id TEXT NOT NULL,
    data_type TEXT NOT NULL,
    path TEXT NOT NULL,
    record_count INTEGER NOT NULL DEFAULT 0,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    compression TEXT NOT NULL,
    checksum TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS tracker_schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_executions_policy_started ON executions(policy_id, started_at);
CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);
CREATE INDEX IF NOT EXISTS idx_archive_entries_type_created ON archive_entries(data_type, created_at);
`

// InsertSchemaVersion inserts the schema version into the version table.
const InsertSchemaVersion = `
INSERT INTO tracker_schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM tracker_schema_version ORDER BY version DESC LIMIT 1;
`
