// Package httpapi assembles the public HTTP surface: analysis and trace
// endpoints behind per-route rate limits, export downloads, the report
// archive behind admin auth, and operational endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledgertrace/internal/platform/config"
	"ledgertrace/internal/platform/metrics"
	"ledgertrace/internal/platform/middleware"
	"ledgertrace/internal/ratelimit"
	"ledgertrace/pkg/platform/httputil"
)

// Registrar mounts a handler's routes on a router. All feature handlers
// satisfy it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the health of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router wires together. Nil optional fields
// disable their feature: a nil Metrics skips instrumentation, a nil Auth
// hides the admin surface.
type Deps struct {
	Cfg      config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Limiter  *ratelimit.Middleware
	Auth     middleware.TokenValidator
	Trace    Registrar
	Analyzer Registrar
	Export   Registrar
	Reports  Registrar
	Checks   map[string]HealthChecker
}

// NewRouter builds the service router.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"service": "ledgertrace",
			"status":  "running",
		})
	})
	r.Get("/health", healthHandler(deps.Checks))
	r.Handle("/metrics", promhttp.Handler())

	limits := deps.Cfg.RateLimit
	limited := func(class string, limit int, h Registrar) {
		if h == nil {
			return
		}
		r.Group(func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(deps.Limiter.Limit(class, limit))
			}
			h.Register(r)
		})
	}

	limited("analyze", limits.AnalyzePerMin, deps.Analyzer)
	limited("ownership", limits.OwnershipPerMin, deps.Trace)
	limited("export", limits.ExportPerMin, deps.Export)

	if deps.Auth != nil && deps.Reports != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Auth, deps.Logger))
			if deps.Limiter != nil {
				r.Use(deps.Limiter.Limit("admin", limits.DefaultPerMin))
			}
			deps.Reports.Register(r)
		})
	}

	return r
}

// healthHandler reports overall service health. Degraded dependencies are
// named but the endpoint stays 200 as long as the process can serve; only
// the process itself being unhealthy warrants failing probes.
func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "healthy"}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				status[name] = "unhealthy"
				status["status"] = "degraded"
			} else {
				status[name] = "healthy"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
