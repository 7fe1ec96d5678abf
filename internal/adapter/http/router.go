package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/duebook/internal/adapter/http/handler"
	"github.com/iho/duebook/internal/adapter/http/middleware"
	"github.com/iho/duebook/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	OccurrenceHandler *handler.OccurrenceHandler
	ObligationHandler *handler.ObligationHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	IdempotencyTTL    time.Duration
	RateLimiter       *middleware.RateLimiter
	Logger            zerolog.Logger

	// Metrics instruments every request when set.
	Metrics *middleware.HTTPMetrics
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Occurrences
		r.Route("/occurrences", func(r chi.Router) {
			r.Get("/", cfg.OccurrenceHandler.List)
			r.Post("/{id}/settlement", cfg.OccurrenceHandler.Settle)
			r.Delete("/{id}/settlement", cfg.OccurrenceHandler.Unsettle)
		})

		// Obligations
		r.Route("/obligations", func(r chi.Router) {
			r.Post("/", cfg.ObligationHandler.Create)
			r.Get("/", cfg.ObligationHandler.List)
			r.Get("/{id}", cfg.ObligationHandler.Get)
			r.Patch("/{id}", cfg.ObligationHandler.Patch)
			r.Put("/{id}", cfg.ObligationHandler.Put)
			r.Delete("/{id}", cfg.ObligationHandler.Delete)
		})
	})

	return r
}
