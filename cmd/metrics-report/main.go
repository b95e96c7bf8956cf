// Command metrics-report runs one analysis over the raw e-commerce CSVs
// and writes the report bundle: ranked CSV tables plus the executive
// summary workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"ecomlytics/internal/compare"
	"ecomlytics/internal/config"
	"ecomlytics/internal/exporter"
	"ecomlytics/internal/infrastructure"
	"ecomlytics/internal/metrics"
	"ecomlytics/internal/services"
	"ecomlytics/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

func main() {
	dataDir := flag.String("data", "", "directory holding the raw CSV record sets (defaults to configured data dir)")
	outDir := flag.String("out", "", "output directory for reports (defaults to configured reports dir)")
	year := flag.Int("year", 0, "analysis year")
	month := flag.Int("month", 0, "analysis month (requires -year)")
	start := flag.String("start", "", "analysis range start, YYYY-MM-DD (requires -end)")
	end := flag.String("end", "", "analysis range end, YYYY-MM-DD, inclusive")
	topN := flag.Int("top", 0, "number of categories to rank (required)")
	buckets := flag.String("buckets", "", "delivery-time bucket boundaries in days, e.g. 3,7 (required)")
	promoters := flag.String("promoters", "", "review scores counted as promoters, e.g. 4-5 (required)")
	detractors := flag.String("detractors", "", "review scores counted as detractors, e.g. 1-2 (required)")
	granularity := flag.String("granularity", "month", "trend granularity: day, week or month")
	withCompare := flag.Bool("compare", false, "also compute the immediately preceding period")
	var health healthFlags
	flag.Var(&health, "health", "health component as name=weight:min:max, repeatable (required)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)

	if *dataDir == "" {
		*dataDir = cfg.Paths.DataDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.ReportsDir
	}
	window, err := buildWindowSpec(*year, *month, *start, *end)
	if err != nil {
		logger.Error("invalid window flags", "error", err)
		os.Exit(1)
	}

	bucketSpec, err := parseBuckets(*buckets)
	if err != nil {
		logger.Error("invalid -buckets flag", "error", err)
		os.Exit(1)
	}
	nps, err := parseNPS(*promoters, *detractors)
	if err != nil {
		logger.Error("invalid score range flags", "error", err)
		os.Exit(1)
	}
	healthSpec, err := health.spec()
	if err != nil {
		logger.Error("invalid -health flags", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc := services.NewAnalysisService(*dataDir, logger)

	result, err := svc.Analyze(ctx, services.Request{
		Window:      window,
		TopN:        metrics.TopNSpec(*topN),
		Buckets:     bucketSpec,
		NPS:         nps,
		Granularity: compare.Granularity(strings.ToLower(*granularity)),
		WithCompare: *withCompare,
		Health:      healthSpec,
	})
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	if err := exporter.NewReportWriter(*outDir, logger).WriteAll(result); err != nil {
		logger.Error("report generation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("report bundle written",
		slog.String("window", result.Window.String()),
		slog.String("dir", *outDir),
		slog.Int("rows", result.RowCount),
	)
	printDigest(result)
}

func buildWindowSpec(year, month int, start, end string) (domain.WindowSpec, error) {
	switch {
	case start != "" && end != "":
		from, err := time.ParseInLocation(dateLayout, start, time.UTC)
		if err != nil {
			return domain.WindowSpec{}, fmt.Errorf("-start: %w", err)
		}
		to, err := time.ParseInLocation(dateLayout, end, time.UTC)
		if err != nil {
			return domain.WindowSpec{}, fmt.Errorf("-end: %w", err)
		}
		return domain.NewRangeSpec(from, to.AddDate(0, 0, 1).Add(-time.Nanosecond)), nil
	case year != 0 && month != 0:
		return domain.NewMonthSpec(year, month), nil
	case year != 0:
		return domain.NewYearSpec(year), nil
	default:
		return domain.WindowSpec{}, fmt.Errorf("either -year (with optional -month) or -start and -end must be given")
	}
}

// parseBuckets reads comma-separated day boundaries, e.g. "3,7".
func parseBuckets(raw string) (metrics.BucketSpec, error) {
	if raw == "" {
		return metrics.BucketSpec{}, fmt.Errorf("-buckets is required, e.g. -buckets 3,7")
	}
	parts := strings.Split(raw, ",")
	boundaries := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return metrics.BucketSpec{}, fmt.Errorf("boundary %q: %w", part, err)
		}
		boundaries = append(boundaries, value)
	}
	return metrics.BucketSpec{Boundaries: boundaries}, nil
}

func parseScoreRange(flagName, raw string) (metrics.ScoreRange, error) {
	if raw == "" {
		return metrics.ScoreRange{}, fmt.Errorf("%s is required, e.g. %s 4-5", flagName, flagName)
	}
	lo, hi, ok := strings.Cut(raw, "-")
	if !ok {
		return metrics.ScoreRange{}, fmt.Errorf("%s %q: want min-max", flagName, raw)
	}
	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return metrics.ScoreRange{}, fmt.Errorf("%s %q: %w", flagName, raw, err)
	}
	max, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return metrics.ScoreRange{}, fmt.Errorf("%s %q: %w", flagName, raw, err)
	}
	return metrics.ScoreRange{Min: min, Max: max}, nil
}

func parseNPS(promoters, detractors string) (metrics.NPSConfig, error) {
	promoterRange, err := parseScoreRange("-promoters", promoters)
	if err != nil {
		return metrics.NPSConfig{}, err
	}
	detractorRange, err := parseScoreRange("-detractors", detractors)
	if err != nil {
		return metrics.NPSConfig{}, err
	}
	return metrics.NPSConfig{Promoters: promoterRange, Detractors: detractorRange}, nil
}

// healthFlags collects repeated -health name=weight:min:max components.
type healthFlags []string

func (h *healthFlags) String() string { return strings.Join(*h, " ") }

func (h *healthFlags) Set(value string) error {
	*h = append(*h, value)
	return nil
}

func (h healthFlags) spec() (*services.HealthSpec, error) {
	if len(h) == 0 {
		return nil, fmt.Errorf("-health is required, e.g. -health average_review_score=0.5:1:5")
	}
	spec := services.HealthSpec{
		Weights: make(metrics.HealthWeights, len(h)),
		Bounds:  make(map[string]metrics.NormalizationBounds, len(h)),
	}
	for _, raw := range h {
		name, rest, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("-health %q: want name=weight:min:max", raw)
		}
		parts := strings.Split(rest, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("-health %q: want name=weight:min:max", raw)
		}
		weight, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("-health %q: weight: %w", raw, err)
		}
		min, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("-health %q: min: %w", raw, err)
		}
		max, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("-health %q: max: %w", raw, err)
		}
		spec.Weights[name] = weight
		spec.Bounds[name] = metrics.NormalizationBounds{Min: min, Max: max}
	}
	return &spec, nil
}

func printDigest(result *services.Result) {
	summary := services.BuildSummary(result)

	fmt.Printf("\n%s (%s)\n\n", summary.Title, summary.Window)
	for _, line := range summary.Lines {
		fmt.Printf("  %-28s %s\n", line.Label, line.Value)
	}
	if len(summary.Highlights) > 0 {
		fmt.Println()
		for _, highlight := range summary.Highlights {
			fmt.Printf("  * %s\n", highlight)
		}
	}
	fmt.Println()
}
