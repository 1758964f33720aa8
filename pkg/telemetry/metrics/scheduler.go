package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
)

// SchedulerMetrics tracks metrics related to the execution scheduler.
//
// Metrics:
//   - retention_scheduler_skips_total: Due executions skipped because the
//     policy was already in flight
//   - retention_scheduler_last_tick_timestamp_seconds: Unix time of the
//     last completed tick, for liveness alerting
//   - retention_policies_enabled: Number of currently enabled policies
type SchedulerMetrics struct {
	// Single-flight skips
	skipsTotal *prometheus.CounterVec

	// Tick liveness
	lastTick prometheus.Gauge

	// Enabled policy gauge
	policiesEnabled prometheus.Gauge
}

// NewSchedulerMetrics creates and registers scheduler metrics with the
// provided registry.
func NewSchedulerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SchedulerMetrics {
	sm := &SchedulerMetrics{
		skipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "scheduler_skips_total",
				Help:      "Due executions skipped because the policy was already running",
			},
			[]string{"policy"},
		),

		lastTick: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "scheduler_last_tick_timestamp_seconds",
				Help:      "Unix timestamp of the last completed scheduler tick",
			},
		),

		policiesEnabled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "policies_enabled",
				Help:      "Number of currently enabled retention policies",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		sm.skipsTotal,
		sm.lastTick,
		sm.policiesEnabled,
	)

	return sm
}

// RecordSkip records a due execution skipped by single-flight.
func (sm *SchedulerMetrics) RecordSkip(policy string) {
	sm.skipsTotal.WithLabelValues(policy).Inc()
}

// RecordTick records the completion time of a scheduler tick.
func (sm *SchedulerMetrics) RecordTick(at time.Time) {
	sm.lastTick.Set(float64(at.Unix()))
}

// SetPoliciesEnabled updates the enabled-policy gauge.
func (sm *SchedulerMetrics) SetPoliciesEnabled(n int) {
	sm.policiesEnabled.Set(float64(n))
}
