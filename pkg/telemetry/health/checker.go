package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc probes one component. It returns a short human-readable detail
// ("5 policies enabled", "last tick 12s ago") and nil when healthy, or a
// non-nil error describing the problem.
type CheckFunc func(ctx context.Context) (string, error)

// CheckResult is the outcome of a single component check.
type CheckResult struct {
	// Status is "ok" or "unhealthy".
	Status string `json:"status"`

	// Message carries the check's detail when healthy and the error text
	// when not.
	Message string `json:"message,omitempty"`

	// DurationMS is how long the check took.
	DurationMS int64 `json:"duration_ms"`
}

// HealthStatus is the aggregated result of a probe.
type HealthStatus struct {
	// Status is "ok"/"unhealthy" for liveness, "ready"/"degraded" for
	// readiness.
	Status string `json:"status"`

	// Checks holds the per-component results, keyed by check name.
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the probe ran.
	Timestamp time.Time `json:"timestamp"`
}

// Checker runs the daemon's liveness and readiness probes.
//
// Liveness checks answer "is this process doing its job": the scheduler
// tick freshness check lives here, so a wedged tick loop flips the probe
// and gets the process restarted. Readiness checks answer "can this
// process serve and execute right now": store pings, datastore pings, and
// archive root reachability.
type Checker struct {
	mu        sync.RWMutex
	liveness  map[string]CheckFunc
	readiness map[string]CheckFunc

	// checkTimeout bounds each individual check.
	checkTimeout time.Duration
}

// New creates a health checker. A zero timeout defaults to 5 seconds per
// check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		liveness:     make(map[string]CheckFunc),
		readiness:    make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
	}
}

// RegisterCheck registers a named readiness check. Registering an existing
// name replaces it.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readiness[name] = check
}

// RegisterLivenessCheck registers a named liveness check. Liveness checks
// must be cheap; they run on every probe of a restart-happy orchestrator.
func (c *Checker) RegisterLivenessCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness[name] = check
}

// CheckLiveness runs the liveness checks. With none registered the process
// is alive by definition.
func (c *Checker) CheckLiveness(ctx context.Context) HealthStatus {
	results := c.runChecks(ctx, c.snapshot(c.liveness))

	status := "ok"
	for _, result := range results {
		if result.Status == "unhealthy" {
			status = "unhealthy"
		}
	}
	return HealthStatus{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now().UTC(),
	}
}

// CheckReadiness runs all readiness checks concurrently and aggregates
// them. Any failing check degrades the whole probe.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	results := c.runChecks(ctx, c.snapshot(c.readiness))

	status := "ready"
	for _, result := range results {
		if result.Status == "unhealthy" {
			status = "degraded"
		}
	}
	return HealthStatus{
		Status:    status,
		Checks:    results,
		Timestamp: time.Now().UTC(),
	}
}

// snapshot copies a check map under the read lock.
func (c *Checker) snapshot(checks map[string]CheckFunc) map[string]CheckFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()

	copied := make(map[string]CheckFunc, len(checks))
	for name, check := range checks {
		copied[name] = check
	}
	return copied
}

// runChecks executes a set of checks concurrently.
func (c *Checker) runChecks(ctx context.Context, checks map[string]CheckFunc) map[string]CheckResult {
	results := make(map[string]CheckResult, len(checks))
	if len(checks) == 0 {
		return results
	}

	var resultMu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return results
}

// runCheck executes a single check bounded by the check timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()

	type outcome struct {
		detail string
		err    error
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		detail, err := check(checkCtx)
		outcomeCh <- outcome{detail, err}
	}()

	select {
	case out := <-outcomeCh:
		duration := time.Since(start).Milliseconds()
		if out.err != nil {
			return CheckResult{
				Status:     "unhealthy",
				Message:    out.err.Error(),
				DurationMS: duration,
			}
		}
		return CheckResult{
			Status:     "ok",
			Message:    out.detail,
			DurationMS: duration,
		}

	case <-checkCtx.Done():
		return CheckResult{
			Status:     "unhealthy",
			Message:    "health check timeout",
			DurationMS: time.Since(start).Milliseconds(),
		}
	}
}
