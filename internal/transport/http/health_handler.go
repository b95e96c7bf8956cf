package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"ecomlytics/pkg/contracts"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	service AnalysisServiceInterface
	logger  *slog.Logger
	started time.Time
}

// NewHealthHandler creates the health handler
func NewHealthHandler(service AnalysisServiceInterface, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("component", "health_handler")),
		started: time.Now(),
	}
}

// Routes returns the health routes
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetHealth)
	r.Get("/ready", h.GetReadiness)

	return r
}

// GetHealth handles GET /health: process liveness
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(h.started).String(),
		"version": contracts.GetVersionInfo(),
	})
}

// GetReadiness handles GET /health/ready: the service is ready once a raw
// dataset has been loaded.
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	version := h.service.DataVersion()
	if version == "" {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]any{"status": "loading"})
		return
	}

	render.JSON(w, r, map[string]any{
		"status":       "ready",
		"data_version": version,
	})
}
