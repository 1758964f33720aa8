package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8085"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Store defaults
	DefaultStoreBackend      = "sqlite"
	DefaultStorePath         = "data/retention.db"
	DefaultStoreMaxOpenConns = 10
	DefaultStoreMaxIdleConns = 5
	DefaultStoreWALMode      = true
	DefaultStoreBusyTimeout  = 5 * time.Second

	// Datastore defaults
	DefaultDatastoreBackend            = "sqlite"
	DefaultDatastorePath               = "data/records.db"
	DefaultDatastoreBusyTimeout        = 5 * time.Second
	DefaultDatastoreCheckpointInterval = 5 * time.Minute

	// Policy seeding defaults
	DefaultPoliciesDebounceInterval = 250 * time.Millisecond

	// Archive defaults
	DefaultArchiveRoot = "data/archives"

	// Scheduler defaults
	DefaultSchedulerTickInterval  = 30 * time.Second
	DefaultSchedulerMaxConcurrent = 4

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "retention"
)

// DefaultExecutionDurationBuckets are the histogram buckets for execution
// durations. Retention runs span milliseconds (empty selections) to minutes
// (large archive writes).
func DefaultExecutionDurationBuckets() []float64 {
	return []float64{0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 300.0}
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Store.MaxOpenConns == 0 {
		cfg.Store.MaxOpenConns = DefaultStoreMaxOpenConns
	}
	if cfg.Store.MaxIdleConns == 0 {
		cfg.Store.MaxIdleConns = DefaultStoreMaxIdleConns
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = DefaultStoreBusyTimeout
	}

	// Datastore defaults
	if cfg.Datastore.Backend == "" {
		cfg.Datastore.Backend = DefaultDatastoreBackend
	}
	if cfg.Datastore.Path == "" {
		cfg.Datastore.Path = DefaultDatastorePath
	}
	if cfg.Datastore.BusyTimeout == 0 {
		cfg.Datastore.BusyTimeout = DefaultDatastoreBusyTimeout
	}
	if cfg.Datastore.CheckpointInterval == 0 {
		cfg.Datastore.CheckpointInterval = DefaultDatastoreCheckpointInterval
	}

	// Policy seeding defaults
	if cfg.Policies.DebounceInterval == 0 {
		cfg.Policies.DebounceInterval = DefaultPoliciesDebounceInterval
	}

	// Archive defaults
	if cfg.Archive.Root == "" {
		cfg.Archive.Root = DefaultArchiveRoot
	}

	// Scheduler defaults
	if cfg.Scheduler.TickInterval == 0 {
		cfg.Scheduler.TickInterval = DefaultSchedulerTickInterval
	}
	if cfg.Scheduler.MaxConcurrent == 0 {
		cfg.Scheduler.MaxConcurrent = DefaultSchedulerMaxConcurrent
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.ExecutionDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.ExecutionDurationBuckets = DefaultExecutionDurationBuckets()
	}
}
