// Package server provides the management API for the retention daemon.
//
// This package ties together the policy store, the execution tracker, and
// the scheduler behind a JSON HTTP API, and provides server lifecycle
// management including start and graceful shutdown.
//
// # Routes
//
// The server exposes the following endpoints:
//
//   - GET    /api/v1/policies              - List policies (?enabled=, ?data_type=)
//   - POST   /api/v1/policies              - Create a policy
//   - GET    /api/v1/policies/{id}         - Get a policy
//   - PUT    /api/v1/policies/{id}         - Update a policy
//   - DELETE /api/v1/policies/{id}         - Delete a policy
//   - POST   /api/v1/policies/{id}/execute - Run a policy now (?dry_run=)
//   - GET    /api/v1/policies/{id}/stats   - Aggregates from execution history
//   - GET    /api/v1/executions            - Execution history (?policy_id=, ?status=, ?limit=)
//   - GET    /api/v1/executions/{id}       - One execution record
//   - GET    /api/v1/archives              - Archive listing with totals (?data_type=, ?limit=)
//   - GET    /healthz                      - Liveness probe
//   - GET    /readyz                       - Readiness probe
//   - GET    /metrics                      - Prometheus metrics
//
// # Error Responses
//
// Failures return a JSON body with the shape:
//
//	{"error": "retention_days must be between 1 and 3650", "field": "retention_days"}
//
// Status codes follow the error kind: validation failures are 400, unknown
// IDs are 404, and a manual execution against an in-flight policy is 409.
// Anything else is an opaque 500 with the cause logged server-side.
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost first):
//  1. Recovery: catches handler panics and returns a 500
//  2. RequestLog: structured request logging with latency
//  3. Metrics: request counts and latency by matched route
//
// # Scheduler Coupling
//
// Policy writes (create, update, delete) poke the scheduler after they
// commit, so changed cron schedules take effect on the next tick instead
// of whenever the policy next loads. Manual executions go through the
// scheduler's single-flight gate, so an API-triggered run and a scheduled
// run can never target the same policy concurrently.
//
// # Basic Usage
//
//	api := server.NewAPI(store, tracker, sched)
//	srv := server.New(&cfg.Server, &cfg.Telemetry.Metrics, api, checker, collector)
//	if err := srv.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled or Shutdown is called.
package server
