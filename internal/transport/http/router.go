package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ecomlytics/internal/config"
	apierrors "ecomlytics/internal/errors"
	custommw "ecomlytics/internal/middleware"
)

// RouterDeps bundles everything the router needs
type RouterDeps struct {
	Service  AnalysisServiceInterface
	Reports  ReportWriterInterface
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// NewRouter assembles the full middleware chain and mounts the API
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(custommw.RequestID)
	r.Use(custommw.StructuredLogger(logger))
	r.Use(custommw.Recoverer(logger))
	r.Use(custommw.NewMetrics(registry).Handler)
	if deps.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			deps.Config.Security.RateLimit.RPS,
			deps.Config.Security.RateLimit.Burst,
			logger,
		)
		r.Use(limiter.Handler)
	}
	r.Use(custommw.Timeout(deps.Config.Server.RequestTimeout, logger))

	analysis := NewAnalysisHandler(deps.Service, deps.Reports, logger, errorHandler)
	health := NewHealthHandler(deps.Service, logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", analysis.Routes())
	})
	r.Mount("/health", health.Routes())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.NotFound(errorHandler.NotFound)

	return r
}
