package config

import "time"

// Config is the root configuration structure for the retention daemon.
// It contains all configuration sections for the management API server,
// the metadata and record stores, policy seeding, archiving, scheduling,
// and telemetry.
type Config struct {
	// Server contains the management API server configuration including
	// listen address and timeouts.
	Server ServerConfig `yaml:"server"`

	// Store contains configuration for the metadata database holding
	// retention policies and the execution audit trail.
	Store StoreConfig `yaml:"store"`

	// Datastore contains configuration for the hot record store the
	// retention engine counts, archives, and deletes from.
	Datastore DatastoreConfig `yaml:"datastore"`

	// Policies contains configuration for declarative policy seeding from
	// a YAML file and optional live reloading.
	Policies PoliciesConfig `yaml:"policies"`

	// Archive contains configuration for the cold archive destination.
	Archive ArchiveConfig `yaml:"archive"`

	// Scheduler contains configuration for the recurring execution
	// scheduler.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Telemetry contains configuration for observability: logging and
	// metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the management API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the API to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8085", "0.0.0.0:8085").
	// Default: "127.0.0.1:8085"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. If IdleTimeout is zero, ReadTimeout is
	// used.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// If requests are still in-flight after this timeout, the server will
	// force shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header's keys and values.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// StoreConfig contains configuration for the metadata database backing the
// policy store and the execution tracker. Both share one database file.
type StoreConfig struct {
	// Backend selects the storage backend.
	// Options: "sqlite" (persistent), "memory" (ephemeral, for testing)
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path when Backend is "sqlite".
	// Default: "data/retention.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections to the
	// database.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// DatastoreConfig contains configuration for the hot record store.
type DatastoreConfig struct {
	// Backend selects the storage backend.
	// Options: "sqlite" (persistent), "memory" (ephemeral, for testing)
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path when Backend is "sqlite".
	// Default: "data/records.db"
	Path string `yaml:"path"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the WAL is checkpointed in the
	// background. Zero disables periodic checkpointing.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// PoliciesConfig contains configuration for declarative policy seeding.
type PoliciesConfig struct {
	// SeedPath is the path to a YAML seed file of policy definitions that
	// are synced into the policy store at startup. Empty disables seeding.
	// Default: "" (disabled)
	SeedPath string `yaml:"seed_path"`

	// Watch enables live reloading of the seed file: edits are re-synced
	// into the store and the scheduler is reloaded. Requires SeedPath.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is how long to coalesce file change events before
	// re-syncing.
	// Default: 250ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// ArchiveConfig contains configuration for the archive destination.
type ArchiveConfig struct {
	// Root is the base directory all policy archive destinations resolve
	// under.
	// Default: "data/archives"
	Root string `yaml:"root"`
}

// SchedulerConfig contains configuration for the execution scheduler.
type SchedulerConfig struct {
	// Enabled controls whether the scheduler runs. When disabled,
	// executions only happen via the API or CLI.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// TickInterval is how often the scheduler evaluates policy schedules.
	// Default: 30s
	TickInterval time.Duration `yaml:"tick_interval"`

	// MaxConcurrent bounds the number of policy executions running at the
	// same time.
	// Default: 4
	MaxConcurrent int `yaml:"max_concurrent"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path the metrics endpoint is served on.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the prefix applied to all metric names.
	// Default: "retention"
	Namespace string `yaml:"namespace"`

	// ExecutionDurationBuckets are the histogram buckets for execution
	// durations in seconds.
	// Default: 0.05, 0.1, 0.5, 1, 5, 15, 60, 300
	ExecutionDurationBuckets []float64 `yaml:"execution_duration_buckets"`
}

// WALEnabled reports whether WAL mode should be used, treating an unset
// flag as enabled.
func (c *StoreConfig) WALEnabled() bool {
	return c.WALMode == nil || *c.WALMode
}

// SchedulerEnabled reports whether the scheduler should run, treating an
// unset flag as enabled.
func (c *SchedulerConfig) SchedulerEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// MetricsEnabled reports whether metrics collection is on, treating an
// unset flag as enabled.
func (c *MetricsConfig) MetricsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
