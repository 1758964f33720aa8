package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/policy"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/scheduler"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/tracker"
)

// API implements the management endpoints for policies, executions, and
// archives. Policy writes poke the scheduler so due times are recomputed
// without waiting for the next tick.
type API struct {
	policies  policy.Store
	tracker   tracker.Tracker
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
}

// NewAPI creates the management API backed by the given store, tracker,
// and scheduler.
func NewAPI(policies policy.Store, trk tracker.Tracker, sched *scheduler.Scheduler) *API {
	return &API{
		policies:  policies,
		tracker:   trk,
		scheduler: sched,
		logger:    slog.Default().With("component", "server.api"),
	}
}

// policyListResponse is the body of GET /api/v1/policies.
type policyListResponse struct {
	Policies []*retention.Policy `json:"policies"`
	Count    int                 `json:"count"`
}

// executionListResponse is the body of GET /api/v1/executions.
type executionListResponse struct {
	Executions []*retention.ExecutionRecord `json:"executions"`
	Count      int                          `json:"count"`
}

// listPolicies handles GET /api/v1/policies.
func (a *API) listPolicies(w http.ResponseWriter, r *http.Request) {
	filter := &retention.PolicyFilter{
		DataType: r.URL.Query().Get("data_type"),
	}

	if raw := r.URL.Query().Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, retention.NewValidationError("enabled", "must be true or false"))
			return
		}
		filter.Enabled = &enabled
	}

	policies, err := a.policies.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, policyListResponse{
		Policies: policies,
		Count:    len(policies),
	})
}

// createPolicy handles POST /api/v1/policies.
func (a *API) createPolicy(w http.ResponseWriter, r *http.Request) {
	var p retention.Policy
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}

	if err := a.policies.Create(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}

	a.scheduler.Reload(r.Context())
	a.logger.Info("policy created",
		"policy_id", p.ID,
		"name", p.Name,
		"data_type", p.DataType,
	)
	writeJSON(w, http.StatusCreated, &p)
}

// getPolicy handles GET /api/v1/policies/{id}.
func (a *API) getPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := a.policies.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// updatePolicy handles PUT /api/v1/policies/{id}. The path ID wins over
// any ID in the body.
func (a *API) updatePolicy(w http.ResponseWriter, r *http.Request) {
	var p retention.Policy
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	p.ID = r.PathValue("id")

	if err := a.policies.Update(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}

	// Re-read so the response carries the store-managed counters, not
	// whatever the client sent.
	updated, err := a.policies.Get(r.Context(), p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a.scheduler.Reload(r.Context())
	a.logger.Info("policy updated",
		"policy_id", updated.ID,
		"name", updated.Name,
	)
	writeJSON(w, http.StatusOK, updated)
}

// deletePolicy handles DELETE /api/v1/policies/{id}.
func (a *API) deletePolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.policies.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	a.scheduler.Reload(r.Context())
	a.logger.Info("policy deleted", "policy_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// executePolicy handles POST /api/v1/policies/{id}/execute. The run is
// synchronous: the response carries the completed execution record, even
// when the run's terminal status is failed. A 409 means the policy is
// already in flight.
func (a *API) executePolicy(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, retention.NewValidationError("dry_run", "must be true or false"))
			return
		}
		dryRun = parsed
	}

	record, err := a.scheduler.TriggerNow(r.Context(), r.PathValue("id"), dryRun)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// listExecutions handles GET /api/v1/executions.
func (a *API) listExecutions(w http.ResponseWriter, r *http.Request) {
	query := &retention.HistoryQuery{
		PolicyID: r.URL.Query().Get("policy_id"),
	}

	if status := r.URL.Query().Get("status"); status != "" {
		switch status {
		case retention.StatusRunning, retention.StatusSuccess, retention.StatusFailed, retention.StatusPartial:
			query.Status = status
		default:
			writeError(w, r, retention.NewValidationError("status",
				"must be one of: running, success, failed, partial"))
			return
		}
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	query.Limit = limit

	records, err := a.tracker.History(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, executionListResponse{
		Executions: records,
		Count:      len(records),
	})
}

// getExecution handles GET /api/v1/executions/{id}.
func (a *API) getExecution(w http.ResponseWriter, r *http.Request) {
	record, err := a.tracker.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// listArchives handles GET /api/v1/archives. The listing carries totals
// over the full matching set alongside the returned page.
func (a *API) listArchives(w http.ResponseWriter, r *http.Request) {
	query := &retention.ArchiveQuery{
		DataType: r.URL.Query().Get("data_type"),
	}

	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	query.Limit = limit

	listing, err := a.tracker.Archives(r.Context(), query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// policyStats handles GET /api/v1/policies/{id}/stats. Aggregates are
// recomputed from the execution history, not read from the policy's
// cached counters.
func (a *API) policyStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := a.policies.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := a.tracker.Stats(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseLimit reads the optional ?limit= query parameter. Zero means the
// backend default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, retention.NewValidationError("limit", "must be a non-negative integer")
	}
	return limit, nil
}
