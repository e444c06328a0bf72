// Package respond writes JSON bodies and maps service errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/go-chi/chi/v5"
)

type errorResponse struct {
	Error string `json:"error"`
}

// PartialResponse is the 207 body of an operation that committed some steps and failed others.
type PartialResponse struct {
	Error     string   `json:"error"`
	Operation string   `json:"operation"`
	Committed []string `json:"committed"`
	Failed    []string `json:"failed"`
	Result    any      `json:"result,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	var partial *errs.PartialApplicationError
	switch {
	case errors.As(err, &partial):
		return http.StatusMultiStatus
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errs.ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with its mapped status. A partial application error is
// written as a PartialResponse without a result.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	WithResult(w, r, nil, err)
}

// WithResult writes err like Error, attaching result to a partial application body.
func WithResult(w http.ResponseWriter, r *http.Request, result any, err error) {
	status := StatusOf(err)

	if partial, ok := errs.AsPartial(err); ok {
		slog.Warn("Partially applied request",
			"method", r.Method,
			"path", r.URL.Path,
			"committed", partial.Committed,
			"failed", partial.Failed,
			"error", err,
		)
		JSON(w, status, PartialResponse{
			Error:     err.Error(),
			Operation: partial.Operation,
			Committed: nonNil(partial.Committed),
			Failed:    nonNil(partial.Failed),
			Result:    result,
		})

		return
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Error handling request", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Info("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	JSON(w, status, errorResponse{Error: err.Error()})
}

// PathID parses the named chi URL parameter as a positive id.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validationf("invalid %s %q", name, raw)
	}

	return id, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
