package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/metrics"
)

// counterValue reads one counter out of the collector's registry.
func counterValue(t *testing.T, collector *metrics.Collector, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			match := true
			for _, label := range metric.GetLabel() {
				if want, ok := labels[label.GetName()]; ok && want != label.GetValue() {
					match = false
					break
				}
			}
			if match {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// TestRecoveryMiddleware verifies a handler panic becomes a 500 with the
// standard error body instead of tearing down the connection.
func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/policies", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected a JSON body: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("expected an opaque error message, got %q", body.Error)
	}
}

// TestMetricsMiddleware verifies requests are counted by matched route
// pattern, not raw path.
func TestMetricsMiddleware(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Namespace: "test"}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/policies/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := MetricsMiddleware(collector)(mux)

	for _, path := range []string{"/api/v1/policies/abc", "/api/v1/policies/def"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	got := counterValue(t, collector, "test_http_requests_total", map[string]string{
		"method": "GET",
		"route":  "/api/v1/policies/{id}",
		"status": "200",
	})
	if got != 2 {
		t.Errorf("expected 2 requests on the pattern label, got %v", got)
	}

	// Unmatched paths collapse into one label value.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	got = counterValue(t, collector, "test_http_requests_total", map[string]string{
		"route": "unmatched",
	})
	if got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
}

// TestResponseWriter_SingleHeader verifies duplicate WriteHeader calls do
// not reach the underlying writer.
func TestResponseWriter_SingleHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusConflict)
	rw.WriteHeader(http.StatusOK)

	if rw.statusCode != http.StatusConflict {
		t.Errorf("expected the first status to stick, got %d", rw.statusCode)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 recorded, got %d", rec.Code)
	}
}

// TestWriteError_StatusMapping verifies each domain error kind maps to its
// HTTP status.
func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
	}{
		{
			name:       "validation error",
			err:        retention.NewValidationError("schedule", "invalid cron expression"),
			wantStatus: http.StatusBadRequest,
			wantField:  "schedule",
		},
		{
			name:       "not found",
			err:        retention.NewNotFoundError("policy", "p-1"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "concurrency",
			err:        retention.NewConcurrencyError("p-1"),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown error is opaque",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/api/v1/policies", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("expected a JSON body: %v", err)
			}
			if body.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, body.Field)
			}
			if tt.wantStatus == http.StatusInternalServerError && body.Error != "internal server error" {
				t.Errorf("expected the cause to be hidden, got %q", body.Error)
			}
		})
	}
}

// TestServer_ShutdownTwice verifies shutdown is idempotent before start.
func TestServer_ShutdownTwice(t *testing.T) {
	srv := New(
		&config.ServerConfig{ListenAddress: "127.0.0.1:0", ShutdownTimeout: time.Second},
		&config.MetricsConfig{},
		nil, nil, nil,
	)
	if srv.IsRunning() {
		t.Error("expected a fresh server to not be running")
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown before start: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}
