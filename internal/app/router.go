package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	bashttp "github.com/clinicbooks/clinicbooks/internal/bas/http"
	calchttp "github.com/clinicbooks/clinicbooks/internal/calc/http"
	"github.com/clinicbooks/clinicbooks/internal/observability"
	"github.com/clinicbooks/clinicbooks/internal/platform/httpx"
	"github.com/clinicbooks/clinicbooks/jobs"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	BASHandler  *bashttp.Handler
	CalcHandler *calchttp.Handler
	JobHandler  *jobs.Handler
	Metrics     *observability.Metrics
	Readiness   map[string]Pinger
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(params.Logger, params.Readiness))

	if params.CalcHandler != nil {
		params.CalcHandler.MountRoutes(r)
	}
	if params.BASHandler != nil {
		params.BASHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}

func readiness(logger *slog.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := make(map[string]string, len(deps))
		code := http.StatusOK
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", slog.String("dependency", name), slog.Any("error", err))
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "up"
		}
		httpx.JSON(w, code, status)
	}
}
