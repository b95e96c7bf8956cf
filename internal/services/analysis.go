package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ecomlytics/internal/compare"
	"ecomlytics/internal/dataset"
	apperrors "ecomlytics/internal/errors"
	"ecomlytics/internal/metrics"
	"ecomlytics/pkg/contracts/domain"
)

// HealthSpec selects the composite-score inputs: which metrics participate,
// their weights, and the bounds that map each raw value onto the 0-100 scale.
type HealthSpec struct {
	Weights metrics.HealthWeights                  `json:"weights"`
	Bounds  map[string]metrics.NormalizationBounds `json:"bounds"`
}

// Validate checks weights and bounds agree on the participating metrics
func (h HealthSpec) Validate() error {
	if err := h.Weights.Validate(); err != nil {
		return err
	}
	for name := range h.Weights {
		bounds, ok := h.Bounds[name]
		if !ok {
			return fmt.Errorf("health spec: metric %q has a weight but no normalization bounds", name)
		}
		if err := bounds.Validate(); err != nil {
			return fmt.Errorf("health spec: metric %q: %w", name, err)
		}
	}
	for name := range h.Bounds {
		if _, ok := h.Weights[name]; !ok {
			return fmt.Errorf("health spec: metric %q has bounds but no weight", name)
		}
	}
	return nil
}

// Request describes one analysis run
type Request struct {
	Window      domain.WindowSpec
	TopN        metrics.TopNSpec
	Buckets     metrics.BucketSpec
	NPS         metrics.NPSConfig
	Granularity compare.Granularity
	WithCompare bool
	Health      *HealthSpec
}

// Validate rejects requests that omit any business threshold. Thresholds are
// caller-supplied policy, never baked in, so a missing one is a configuration
// error rather than a value to fill.
func (r Request) Validate() error {
	if err := r.TopN.Validate(); err != nil {
		return err
	}
	if err := r.Buckets.Validate(); err != nil {
		return err
	}
	if err := r.NPS.Validate(); err != nil {
		return err
	}
	if r.Health == nil {
		return fmt.Errorf("health spec is required")
	}
	if err := r.Health.Validate(); err != nil {
		return err
	}
	if r.WithCompare {
		if err := r.Granularity.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// windowResult holds everything computed over a single window
type windowResult struct {
	rows       []domain.AnalysisRow
	metrics    domain.MetricSet
	revenue    metrics.RevenueMetrics
	products   metrics.ProductMetrics
	geography  metrics.GeoMetrics
	experience metrics.ExperienceMetrics
}

// Result is the full outcome of one analysis run
type Result struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	DataVersion string                    `json:"data_version"`
	Window      domain.Window             `json:"window"`
	RowCount    int                       `json:"row_count"`
	Metrics     domain.MetricSet          `json:"metrics"`
	Revenue     metrics.RevenueMetrics    `json:"revenue"`
	Products    metrics.ProductMetrics    `json:"products"`
	Geography   metrics.GeoMetrics        `json:"geography"`
	Experience  metrics.ExperienceMetrics `json:"experience"`
	HealthScore *float64                  `json:"health_score"`

	// Populated only when the request asked for a period comparison
	PreviousWindow *domain.Window            `json:"previous_window,omitempty"`
	Comparison     []domain.ComparisonResult `json:"comparison,omitempty"`
	Trend          *compare.TrendPair        `json:"trend,omitempty"`

	// Dataset-wide series, independent of the requested window
	Monthly []compare.MonthlyTrend `json:"monthly_trends"`
	Cohorts []compare.CohortRow    `json:"cohorts"`
}

// AnalysisService orchestrates an analysis run: load the raw sets, assemble
// the analysis table for the requested window, fan the metric families out
// and fold the optional comparison back in. Metric computation is pure, so
// current and previous windows run concurrently.
type AnalysisService struct {
	loader    *dataset.Loader
	store     *dataset.Store
	cache     *dataset.Cache
	assembler *dataset.Assembler
	dataDir   string
	logger    *slog.Logger
}

// NewAnalysisService creates an analysis service reading raw CSVs from dataDir
func NewAnalysisService(dataDir string, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		loader:    dataset.NewLoader(logger),
		store:     dataset.NewStore(),
		cache:     dataset.NewCache(),
		assembler: dataset.NewAssembler(logger),
		dataDir:   dataDir,
		logger:    logger,
	}
}

// Reload re-reads the raw record sets from disk. Memoized windows computed
// against the previous data version are dropped.
func (s *AnalysisService) Reload(ctx context.Context) (string, error) {
	raw, err := s.loader.Load(ctx, s.dataDir)
	if err != nil {
		return "", err
	}

	version := s.store.Replace(raw)
	s.cache.PurgeExcept(version)

	s.logger.InfoContext(ctx, "raw dataset reloaded",
		slog.String("version", version),
		slog.Int("orders", len(raw.Orders)),
	)
	return version, nil
}

// DataVersion returns the loaded dataset's version, or "" before first load
func (s *AnalysisService) DataVersion() string {
	return s.store.Version()
}

// Analyze runs the full metric computation for the request's window
func (s *AnalysisService) Analyze(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid analysis request", err)
	}

	raw, version, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	window, err := req.Window.Normalize()
	if err != nil {
		return nil, apperrors.NewConfigError("invalid analysis window", err)
	}

	var current, previous *windowResult
	previousWindow := window.Previous()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.computeWindow(gctx, raw, version, window, req)
		return err
	})
	if req.WithCompare {
		g.Go(func() error {
			var err error
			previous, err = s.computeWindow(gctx, raw, version, previousWindow, req)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		GeneratedAt: time.Now().UTC(),
		DataVersion: version,
		Window:      window,
		RowCount:    len(current.rows),
		Metrics:     current.metrics,
		Revenue:     current.revenue,
		Products:    current.products,
		Geography:   current.geography,
		Experience:  current.experience,
	}

	score, err := s.healthScore(current.metrics, *req.Health)
	if err != nil {
		return nil, apperrors.NewConfigError("health score computation failed", err)
	}
	result.HealthScore = score
	if score != nil {
		result.Metrics.Set(domain.MetricHealthScore, *score)
	} else {
		result.Metrics.SetNil(domain.MetricHealthScore)
	}

	if req.WithCompare {
		trend, err := compare.TrendSeries(current.rows, previous.rows, window, previousWindow, req.Granularity)
		if err != nil {
			return nil, apperrors.NewConfigError("invalid trend granularity", err)
		}
		result.PreviousWindow = &previousWindow
		result.Comparison = compare.CompareSets(current.metrics, previous.metrics)
		result.Trend = &trend
	}

	if err := s.datasetSeries(ctx, raw, version, result); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "analysis complete",
		slog.String("window", window.String()),
		slog.Int("rows", result.RowCount),
		slog.Bool("compared", req.WithCompare),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// snapshot returns the loaded raw sets, loading them on first use
func (s *AnalysisService) snapshot(ctx context.Context) (domain.RawSets, string, error) {
	raw, version, err := s.store.Snapshot()
	if err == nil {
		return raw, version, nil
	}

	if _, err := s.Reload(ctx); err != nil {
		return domain.RawSets{}, "", err
	}
	return s.store.Snapshot()
}

// rowsFor assembles the analysis table for the window, memoized per data version
func (s *AnalysisService) rowsFor(ctx context.Context, raw domain.RawSets, version string, window domain.Window) ([]domain.AnalysisRow, error) {
	if rows, ok := s.cache.Get(version, window); ok {
		return rows, nil
	}

	rows, _, err := s.assembler.Assemble(ctx, raw, domain.NewRangeSpec(window.Start, window.End))
	if err != nil {
		return nil, err
	}
	s.cache.Put(version, window, rows)
	return rows, nil
}

// computeWindow assembles rows for the window and runs every metric family
func (s *AnalysisService) computeWindow(ctx context.Context, raw domain.RawSets, version string, window domain.Window, req Request) (*windowResult, error) {
	rows, err := s.rowsFor(ctx, raw, version, window)
	if err != nil {
		return nil, err
	}

	res := &windowResult{rows: rows}
	res.revenue = metrics.Revenue(rows)
	res.geography = metrics.GeographicDistribution(rows)

	if res.products, err = metrics.ProductPerformance(rows, req.TopN); err != nil {
		return nil, apperrors.NewConfigError("invalid product ranking configuration", err)
	}
	if res.experience, err = metrics.CustomerExperience(rows, req.Buckets, req.NPS); err != nil {
		return nil, apperrors.NewConfigError("invalid customer experience configuration", err)
	}

	res.metrics = mergeSets(res.revenue.ToMetricSet(window), res.experience.ToMetricSet(window))
	return res, nil
}

// datasetSeries computes the window-independent monthly and cohort series
func (s *AnalysisService) datasetSeries(ctx context.Context, raw domain.RawSets, version string, result *Result) error {
	full, ok := fullRange(raw)
	if !ok {
		return nil
	}

	rows, err := s.rowsFor(ctx, raw, version, full)
	if err != nil {
		return err
	}

	result.Monthly = compare.MonthlyTrends(rows)
	result.Cohorts = compare.Cohorts(rows)
	return nil
}

// healthScore builds the composite-score components from the computed metrics
func (s *AnalysisService) healthScore(set domain.MetricSet, spec HealthSpec) (*float64, error) {
	components := make([]metrics.HealthComponent, 0, len(spec.Weights))
	for name := range spec.Weights {
		value, ok := set.Values[name]
		if !ok {
			return nil, fmt.Errorf("health spec references unknown metric %q", name)
		}
		components = append(components, metrics.HealthComponent{
			Name:   name,
			Value:  value,
			Bounds: spec.Bounds[name],
		})
	}
	return metrics.BusinessHealthScore(components, spec.Weights)
}

// fullRange spans every order's purchase timestamp, false when no orders exist
func fullRange(raw domain.RawSets) (domain.Window, bool) {
	if len(raw.Orders) == 0 {
		return domain.Window{}, false
	}

	min, max := raw.Orders[0].PurchaseTimestamp, raw.Orders[0].PurchaseTimestamp
	for _, order := range raw.Orders[1:] {
		if order.PurchaseTimestamp.Before(min) {
			min = order.PurchaseTimestamp
		}
		if order.PurchaseTimestamp.After(max) {
			max = order.PurchaseTimestamp
		}
	}
	return domain.Window{Start: min.UTC(), End: max.UTC()}, true
}

// mergeSets folds b's values into a copy of a. Both sets cover the same window.
func mergeSets(a, b domain.MetricSet) domain.MetricSet {
	merged := domain.NewMetricSet(a.Window)
	merged.NoData = a.NoData && b.NoData
	for name, value := range a.Values {
		merged.Values[name] = value
	}
	for name, value := range b.Values {
		merged.Values[name] = value
	}
	return merged
}
