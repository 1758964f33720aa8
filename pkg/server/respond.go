package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// maxBodyBytes bounds policy write request bodies. A policy definition is
// a few hundred bytes; anything near this limit is not a policy.
const maxBodyBytes = 1 << 20

// errorResponse is the JSON error body for all API failures.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors to HTTP status codes and writes the JSON
// error body. Unrecognized errors become opaque 500s; the real error is
// logged rather than exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *retention.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: validationErr.Message,
			Field: validationErr.Field,
		})
		return
	}

	var notFoundErr *retention.NotFoundError
	if errors.As(err, &notFoundErr) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundErr.Error()})
		return
	}

	var concurrencyErr *retention.ConcurrencyError
	if errors.As(err, &concurrencyErr) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: concurrencyErr.Error()})
		return
	}

	slog.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// decodeJSON decodes a request body into dst, translating decode failures
// into ValidationErrors so they map to 400s.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF):
			return retention.NewValidationError("", "request body is empty")
		default:
			return retention.NewValidationError("", fmt.Sprintf("invalid JSON body: %v", err))
		}
	}

	// A second document after the first is a malformed request, not extra
	// whitespace.
	if dec.More() {
		return retention.NewValidationError("", "request body must contain a single JSON object")
	}
	return nil
}
