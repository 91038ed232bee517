// Package router assembles the HTTP surface from the per-domain handlers.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attribune/internal/http/shared"
	"attribune/internal/platform/metrics"
	"attribune/internal/platform/middleware"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports readiness of one dependency.
type HealthChecker func() error

// New builds the router with the shared middleware chain. Handlers register
// their own routes; auth scoping stays inside the handler that needs it.
func New(logger *slog.Logger, m *metrics.Metrics, requestTimeout time.Duration, health map[string]HealthChecker, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", handleHealth(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		detail := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				detail[name] = err.Error()
				continue
			}
			detail[name] = "ok"
		}
		body := map[string]any{"status": "ok"}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(detail) > 0 {
			body["checks"] = detail
		}
		shared.WriteJSON(w, status, body)
	}
}
