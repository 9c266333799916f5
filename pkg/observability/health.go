package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck reports whether a subsystem can take traffic.
type ReadyCheck func(ctx context.Context) error

type healthBody struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthHandler serves liveness at /healthz. It always answers 200 {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		writeHealth(hr.Context(), rw, http.StatusOK, healthBody{Status: healthStatusOK})
	})
}

// ReadyHandler serves readiness at /readyz. Every check runs; if any fail
// the answer is 503 {"status":"unavailable"} with the joined error text.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		var errs []error
		for _, check := range checks {
			errs = append(errs, check(hr.Context()))
		}

		if err := errors.Join(errs...); err != nil {
			writeHealth(hr.Context(), rw, http.StatusServiceUnavailable, healthBody{
				Status: healthStatusUnavailable,
				Error:  err.Error(),
			})

			return
		}

		writeHealth(hr.Context(), rw, http.StatusOK, healthBody{Status: healthStatusOK})
	})
}

func writeHealth(ctx context.Context, rw http.ResponseWriter, code int, body healthBody) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	err := json.NewEncoder(rw).Encode(body)
	if err != nil {
		// The status line is already out; the probe sees a truncated body.
		slog.DebugContext(ctx, "failed to write health response", "status", body.Status, "error", err)
	}
}
