package rest

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports whether one dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler aggregates dependency checks into one endpoint.
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler builds the handler over named dependency checks.
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// ServeHTTP returns 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK

	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks[name] = "ok"
		}
	}

	writeJSON(w, status, resp)
}
