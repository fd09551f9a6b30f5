// Package httptransport assembles the public HTTP API from the module handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"provenance/internal/platform/metrics"
	"provenance/internal/platform/middleware"
	"provenance/pkg/platform/httputil"
)

// ModuleHandler is implemented by every module handler.
type ModuleHandler interface {
	Register(r chi.Router)
}

// PublicHandler additionally exposes unauthenticated routes.
type PublicHandler interface {
	RegisterPublic(r chi.Router)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Validator      middleware.JWTValidator
	RequestTimeout time.Duration
	Readiness      map[string]ReadinessCheck

	// PublicLimit, when set, guards the unauthenticated routes.
	PublicLimit func(http.Handler) http.Handler
}

// NewRouter mounts the handlers behind the shared middleware chain. Handlers
// implementing PublicHandler get their public routes mounted without auth.
func NewRouter(cfg Config, handlers ...ModuleHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.LatencyMiddleware(cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readiness(cfg.Logger, cfg.Readiness))

	r.Group(func(r chi.Router) {
		if cfg.PublicLimit != nil {
			r.Use(cfg.PublicLimit)
		}
		r.Use(middleware.ContentTypeJSON)
		for _, h := range handlers {
			if p, ok := h.(PublicHandler); ok {
				p.RegisterPublic(r)
			}
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(cfg.Validator, cfg.Logger))
		for _, h := range handlers {
			h.Register(r)
		}
	})
	return r
}

func readiness(logger *slog.Logger, checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := map[string]string{}
		ready := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
				status[name] = "unavailable"
				ready = false
				continue
			}
			status[name] = "ok"
		}
		code := http.StatusOK
		if !ready {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
