// Package scheduler drives retention policy executions from their cron
// schedules.
//
// # Tick Loop
//
// The scheduler does not register cron jobs. It runs a fixed-interval tick
// loop; each tick loads the enabled policies, computes every policy's next
// run from its standard 5-field cron expression, and launches the ones
// whose time has passed on a bounded worker pool. A policy edited or
// created between ticks is picked up on the next tick, or immediately
// after Reload.
//
// # Single Flight
//
// Each policy has at most one execution in flight across scheduled and
// manual triggers. A due tick that finds the previous run still going is
// skipped, logged, and counted; the missed occurrence is not queued.
//
// # Shutdown
//
// Stop halts launching and waits, bounded by its context, for in-flight
// executions to finish. Canceling the Start context instead aborts them.
package scheduler
