package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
)

// Collector is the main orchestrator for all Prometheus metrics in the
// retention daemon. It manages metric registration and provides a unified
// interface for recording metrics across the engine and scheduler.
//
// The collector is designed for low overhead:
//   - Pre-allocated metric instances
//   - Cardinality limits to prevent memory issues from policy churn
//   - Histogram buckets sized for retention run durations
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Execution metrics
	executionMetrics *ExecutionMetrics

	// Scheduler metrics
	schedulerMetrics *SchedulerMetrics

	// Management API metrics
	httpMetrics *HTTPMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Namespace: "retention",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "retention"
	}
	if len(cfg.ExecutionDurationBuckets) == 0 {
		cfg.ExecutionDurationBuckets = config.DefaultExecutionDurationBuckets()
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	c.executionMetrics = NewExecutionMetrics(cfg, registry)
	c.schedulerMetrics = NewSchedulerMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)

	return c
}

// RecordExecution records metrics for a completed policy execution.
//
// Parameters:
//   - policy: Policy name
//   - dataType: Record category the policy targets
//   - status: Terminal status ("success", "failed", "partial")
//   - duration: Total execution duration
//   - deleted: Records removed from the hot datastore
//   - archived: Records written to the archive file
//   - archiveBytes: On-disk size of the published archive, zero if none
func (c *Collector) RecordExecution(policy, dataType, status string, duration time.Duration, deleted, archived, archiveBytes int64) {
	if !c.config.MetricsEnabled() {
		return
	}

	// Check cardinality limit
	labelSet := fmt.Sprintf("execution:%s:%s:%s", policy, dataType, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate into "other" to prevent cardinality explosion
		policy = "other"
	}

	c.executionMetrics.RecordExecution(policy, dataType, status, duration)
	c.executionMetrics.RecordEffects(dataType, deleted, archived, archiveBytes)
}

// RecordSchedulerSkip records a due execution that was skipped because the
// policy was already in flight.
func (c *Collector) RecordSchedulerSkip(policy string) {
	if !c.config.MetricsEnabled() {
		return
	}

	labelSet := "skip:" + policy
	if !c.cardinalityLimiter.Allow(labelSet) {
		policy = "other"
	}
	c.schedulerMetrics.RecordSkip(policy)
}

// RecordTick records a completed scheduler tick.
func (c *Collector) RecordTick(at time.Time) {
	if !c.config.MetricsEnabled() {
		return
	}
	c.schedulerMetrics.RecordTick(at)
}

// SetPoliciesEnabled updates the gauge of currently enabled policies.
func (c *Collector) SetPoliciesEnabled(n int) {
	if !c.config.MetricsEnabled() {
		return
	}
	c.schedulerMetrics.SetPoliciesEnabled(n)
}

// RecordHTTPRequest records a completed management API request. The route
// must be the registered pattern, not the raw request path.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.MetricsEnabled() {
		return
	}
	c.httpMetrics.RecordRequest(method, route, status, duration)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
