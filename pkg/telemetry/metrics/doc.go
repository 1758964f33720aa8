// Package metrics provides Prometheus metrics for the retention daemon.
//
// The Collector orchestrates three metric groups:
//
// Execution metrics, recorded once per completed policy execution:
//
//   - retention_executions_total{policy, data_type, status}
//   - retention_execution_duration_seconds{data_type}
//   - retention_records_deleted_total{data_type}
//   - retention_records_archived_total{data_type}
//   - retention_archive_bytes_total{data_type}
//
// Scheduler metrics, recorded by the tick loop:
//
//   - retention_scheduler_skips_total{policy}
//   - retention_scheduler_last_tick_timestamp_seconds
//   - retention_policies_enabled
//
// Management API metrics, recorded by the server middleware and labeled by
// matched route pattern rather than raw path:
//
//   - retention_http_requests_total{method, route, status}
//   - retention_http_request_duration_seconds{method, route}
//
// The last-tick gauge is the liveness signal: a scheduler whose last tick
// is older than three tick intervals is considered stalled by the health
// probe and should page.
//
// A cardinality limiter caps unique label sets; once the cap is reached,
// new policy names are folded into the "other" label so policy churn
// cannot grow the registry without bound.
package metrics
