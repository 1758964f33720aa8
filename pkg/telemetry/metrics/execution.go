package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
)

// ExecutionMetrics tracks metrics related to retention policy executions.
//
// Metrics:
//   - retention_executions_total: Execution count by policy, data type, status
//   - retention_execution_duration_seconds: Execution duration histogram
//   - retention_records_deleted_total: Records removed from the hot datastore
//   - retention_records_archived_total: Records written to archive files
//   - retention_archive_bytes_total: Bytes written to archive files
type ExecutionMetrics struct {
	// Total execution count
	executionsTotal *prometheus.CounterVec

	// Execution duration histogram
	executionDuration *prometheus.HistogramVec

	// Effect counters
	recordsDeleted  *prometheus.CounterVec
	recordsArchived *prometheus.CounterVec
	archiveBytes    *prometheus.CounterVec
}

// NewExecutionMetrics creates and registers execution metrics with the
// provided registry.
func NewExecutionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExecutionMetrics {
	em := &ExecutionMetrics{
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "executions_total",
				Help:      "Total number of retention policy executions",
			},
			[]string{"policy", "data_type", "status"},
		),

		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "execution_duration_seconds",
				Help:      "Duration of retention policy executions in seconds",
				Buckets:   cfg.ExecutionDurationBuckets,
			},
			[]string{"data_type"},
		),

		recordsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "records_deleted_total",
				Help:      "Total number of records deleted from the hot datastore",
			},
			[]string{"data_type"},
		),

		recordsArchived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "records_archived_total",
				Help:      "Total number of records written to archive files",
			},
			[]string{"data_type"},
		),

		archiveBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "archive_bytes_total",
				Help:      "Total bytes written to published archive files",
			},
			[]string{"data_type"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		em.executionsTotal,
		em.executionDuration,
		em.recordsDeleted,
		em.recordsArchived,
		em.archiveBytes,
	)

	return em
}

// RecordExecution records the outcome and duration of one execution.
//
// Parameters:
//   - policy: Policy name
//   - dataType: Record category the policy targets
//   - status: Terminal status ("success", "failed", "partial")
//   - duration: Execution duration
func (em *ExecutionMetrics) RecordExecution(policy, dataType, status string, duration time.Duration) {
	em.executionsTotal.WithLabelValues(policy, dataType, status).Inc()
	em.executionDuration.WithLabelValues(dataType).Observe(duration.Seconds())
}

// RecordEffects records the data-mutating effects of one execution.
//
// Parameters:
//   - dataType: Record category the policy targets
//   - deleted: Records removed
//   - archived: Records written to the archive file
//   - archiveBytes: Size of the published archive file
func (em *ExecutionMetrics) RecordEffects(dataType string, deleted, archived, archiveBytes int64) {
	if deleted > 0 {
		em.recordsDeleted.WithLabelValues(dataType).Add(float64(deleted))
	}
	if archived > 0 {
		em.recordsArchived.WithLabelValues(dataType).Add(float64(archived))
	}
	if archiveBytes > 0 {
		em.archiveBytes.WithLabelValues(dataType).Add(float64(archiveBytes))
	}
}
