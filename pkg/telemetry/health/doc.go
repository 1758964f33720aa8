// Package health runs the daemon's liveness and readiness probes.
//
// # Liveness vs Readiness
//
// Liveness (/healthz) answers "should this process be restarted". Besides
// the process being up, the scheduler's tick freshness is registered here:
// a tick loop that has not evaluated policies for three intervals means the
// daemon is wedged, and restarting is the right call.
//
// Readiness (/readyz) answers "can this process do useful work right now":
// the policy store and tracker respond, every registered datastore
// responds, and the archive root is writable. A degraded readiness probe
// keeps traffic away without restarting the process.
//
// Checks are registered by the daemon's composition root; this package
// only runs them, bounded by a per-check timeout, and serves the results
// as JSON.
package health
