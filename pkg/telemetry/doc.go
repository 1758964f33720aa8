// Package telemetry provides observability for the retention daemon.
//
// # Components
//
//   - logging: structured slog logging with component-scoped loggers
//   - metrics: Prometheus metrics for executions, the scheduler, and the
//     management API
//   - health: liveness and readiness checks feeding the health probe
//
// The subpackages are independent; the daemon composes them in its run
// command and tests construct only what they exercise.
package telemetry
