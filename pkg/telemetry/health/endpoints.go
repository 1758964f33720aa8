package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler returns the /healthz handler. It reports 200 while the
// process and its liveness checks (scheduler tick freshness) are healthy,
// 503 otherwise.
//
// Example response:
//
//	{
//	    "status": "ok",
//	    "checks": {
//	        "scheduler": {"status": "ok", "message": "last tick 12s ago", "duration_ms": 0}
//	    },
//	    "timestamp": "2026-08-25T10:30:00Z"
//	}
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.CheckLiveness(r.Context())
		writeStatus(w, r, status, status.Status == "ok")
	}
}

// ReadinessHandler returns the /readyz handler. It runs every registered
// readiness check and reports 503 when any component is unhealthy.
//
// Example response:
//
//	{
//	    "status": "ready",
//	    "checks": {
//	        "policy_store": {"status": "ok", "message": "3 policies enabled", "duration_ms": 1},
//	        "archive": {"status": "ok", "message": "data/archives", "duration_ms": 0}
//	    },
//	    "timestamp": "2026-08-25T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.CheckReadiness(r.Context())
		writeStatus(w, r, status, status.Status == "ready")
	}
}

// writeStatus serializes a probe result with the right status code. HEAD
// requests get the code without a body.
func writeStatus(w http.ResponseWriter, r *http.Request, status HealthStatus, healthy bool) {
	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(status)
	}
}
