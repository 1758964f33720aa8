package policy

// SchemaVersion is the current policy database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the policy schema.
const Schema = `
-- Retention policies table
CREATE TABLE IF NOT EXISTS policies (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL COLLATE NOCASE UNIQUE,
    description TEXT,

    -- Target
    data_type TEXT NOT NULL,
    filters TEXT,

    -- Lifecycle
    retention_days INTEGER NOT NULL,
    archive_before_delete BOOLEAN NOT NULL,
    archive_destination TEXT,
    archive_compression TEXT,

    -- Recurrence
    schedule TEXT NOT NULL,
    enabled BOOLEAN NOT NULL,

    -- Timestamps
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,

    -- Lifetime counters
    execution_count INTEGER NOT NULL DEFAULT 0,
    total_records_deleted INTEGER NOT NULL DEFAULT 0,
    total_records_archived INTEGER NOT NULL DEFAULT 0,
    last_executed_at TIMESTAMP,
    last_execution_status TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS policy_schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_policies_data_type ON policies(data_type);
CREATE INDEX IF NOT EXISTS idx_policies_enabled ON policies(enabled);
`

// InsertSchemaVersion inserts the schema version into the version table.
const InsertSchemaVersion = `
INSERT INTO policy_schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM policy_schema_version ORDER BY version DESC LIMIT 1;
`
