// Package httpapi assembles the root router: the certification API plus the
// operational endpoints (health, metrics).
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certo/internal/certification/handler"
	"certo/pkg/platform/httputil"
)

// HealthChecker reports the liveness of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter wires all endpoints. Dependencies in checks are probed by the
// readiness endpoint; a nil checker is skipped.
func NewRouter(h *handler.Handler, checks map[string]HealthChecker) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(req.Context()); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	})
	r.Handle("/metrics", promhttp.Handler())

	h.Register(r)
	return r
}
