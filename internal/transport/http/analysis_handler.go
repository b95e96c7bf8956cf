package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"ecomlytics/internal/compare"
	apierrors "ecomlytics/internal/errors"
	"ecomlytics/internal/metrics"
	"ecomlytics/internal/services"
	"ecomlytics/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// AnalysisHandler serves the analysis API
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	reports      ReportWriterInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewAnalysisHandler creates the analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, reports ReportWriterInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{
		service:      service,
		reports:      reports,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/analysis", h.RunAnalysis)
	r.Post("/reports", h.GenerateReports)
	r.Post("/reload", h.ReloadData)
	r.Get("/version", h.GetVersion)

	return r
}

// scoreRangePayload mirrors metrics.ScoreRange for request decoding
type scoreRangePayload struct {
	Min int `json:"min" validate:"gte=1,lte=5"`
	Max int `json:"max" validate:"gte=1,lte=5"`
}

type healthPayload struct {
	Weights map[string]float64 `json:"weights" validate:"required,min=1"`
	Bounds  map[string]struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"bounds" validate:"required,min=1"`
}

// analysisPayload is the request body for POST /analysis and /reports.
// Exactly one window form must be supplied: start+end, or year with an
// optional month. Every business threshold is mandatory; the service has
// no built-in values to fall back on.
type analysisPayload struct {
	Start *string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   *string `json:"end" validate:"omitempty,datetime=2006-01-02"`
	Year  *int    `json:"year" validate:"omitempty,gte=1900,lte=2200"`
	Month *int    `json:"month" validate:"omitempty,gte=1,lte=12"`

	TopN        int                `json:"top_n" validate:"required,gte=1,lte=1000"`
	Granularity string             `json:"granularity" validate:"required_if=WithCompare true,omitempty,oneof=day week month"`
	WithCompare bool               `json:"with_compare"`
	Buckets     []float64          `json:"delivery_buckets" validate:"required,min=1"`
	Promoters   *scoreRangePayload `json:"promoters" validate:"required"`
	Detractors  *scoreRangePayload `json:"detractors" validate:"required"`
	Health      *healthPayload     `json:"health" validate:"required"`
}

func (p *analysisPayload) Bind(r *http.Request) error {
	return nil
}

// toRequest converts the validated payload into a service request
func (p *analysisPayload) toRequest() (services.Request, error) {
	req := services.Request{
		TopN:        metrics.TopNSpec(p.TopN),
		Granularity: compare.Granularity(p.Granularity),
		WithCompare: p.WithCompare,
	}

	switch {
	case p.Start != nil && p.End != nil:
		start, err := time.ParseInLocation(dateLayout, *p.Start, time.UTC)
		if err != nil {
			return req, fmt.Errorf("start: %w", err)
		}
		end, err := time.ParseInLocation(dateLayout, *p.End, time.UTC)
		if err != nil {
			return req, fmt.Errorf("end: %w", err)
		}
		// the range is inclusive of the whole end day
		req.Window = domain.NewRangeSpec(start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
	case p.Year != nil && p.Month != nil:
		req.Window = domain.NewMonthSpec(*p.Year, *p.Month)
	case p.Year != nil:
		req.Window = domain.NewYearSpec(*p.Year)
	default:
		return req, fmt.Errorf("either start and end, or year (with optional month) must be set")
	}

	req.Buckets = metrics.BucketSpec{Boundaries: p.Buckets}
	req.NPS = metrics.NPSConfig{
		Promoters:  metrics.ScoreRange{Min: p.Promoters.Min, Max: p.Promoters.Max},
		Detractors: metrics.ScoreRange{Min: p.Detractors.Min, Max: p.Detractors.Max},
	}

	spec := services.HealthSpec{
		Weights: metrics.HealthWeights(p.Health.Weights),
		Bounds:  make(map[string]metrics.NormalizationBounds, len(p.Health.Bounds)),
	}
	for name, b := range p.Health.Bounds {
		spec.Bounds[name] = metrics.NormalizationBounds{Min: b.Min, Max: b.Max}
	}
	req.Health = &spec

	return req, nil
}

// RunAnalysis handles POST /analysis
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, result)
}

// GenerateReports handles POST /reports: runs the analysis and writes the
// report bundle to the configured reports directory.
func (h *AnalysisHandler) GenerateReports(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.reports.WriteAll(result); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "report bundle written",
		slog.String("window", result.Window.String()))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]any{
		"window":       result.Window.String(),
		"data_version": result.DataVersion,
		"generated_at": result.GeneratedAt,
	})
}

// ReloadData handles POST /reload
func (h *AnalysisHandler) ReloadData(w http.ResponseWriter, r *http.Request) {
	version, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"data_version": version})
}

// GetVersion handles GET /version
func (h *AnalysisHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"data_version": h.service.DataVersion()})
}

func (h *AnalysisHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (services.Request, bool) {
	var payload analysisPayload
	if err := render.Bind(r, &payload); err != nil {
		h.errorHandler.HandleError(w, r,
			apierrors.NewValidationError(fmt.Sprintf("request body is not valid JSON: %v", err)))
		return services.Request{}, false
	}
	if err := h.validate.Struct(&payload); err != nil {
		h.errorHandler.HandleError(w, r,
			apierrors.NewValidationError(fmt.Sprintf("request validation failed: %v", err)))
		return services.Request{}, false
	}

	req, err := payload.toRequest()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.NewValidationError(err.Error()))
		return services.Request{}, false
	}
	return req, true
}
