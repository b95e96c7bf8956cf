package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomlytics/internal/compare"
	apperrors "ecomlytics/internal/errors"
	"ecomlytics/internal/metrics"
	"ecomlytics/pkg/contracts/domain"
)

// Two delivered orders in June 2023 (revenue 110 + 60) and one in May
// (revenue 40), plus a canceled June order that must not count anywhere.
func writeAnalysisFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"orders_dataset.csv": "order_id,customer_id,order_status,order_purchase_timestamp,order_delivered_customer_date\n" +
			"O1,C1,delivered,2023-06-05 12:00:00,2023-06-09 12:00:00\n" +
			"O2,C2,delivered,2023-06-20 08:00:00,2023-06-28 08:00:00\n" +
			"O3,C1,delivered,2023-05-10 10:00:00,2023-05-14 10:00:00\n" +
			"O4,C3,canceled,2023-06-15 09:00:00,\n",
		"order_items_dataset.csv": "order_id,product_id,price,freight_value\n" +
			"O1,P1,100.00,10.00\n" +
			"O2,P2,55.00,5.00\n" +
			"O3,P1,38.00,2.00\n" +
			"O4,P1,500.00,50.00\n",
		"products_dataset.csv": "product_id,product_category_name\n" +
			"P1,toys\n" +
			"P2,housewares\n",
		"customers_dataset.csv": "customer_id,customer_state,customer_city\n" +
			"C1,SP,sao paulo\n" +
			"C2,RJ,rio de janeiro\n" +
			"C3,SP,campinas\n",
		"order_reviews_dataset.csv": "order_id,review_score\n" +
			"O1,5\n" +
			"O2,2\n" +
			"O3,4\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// testRequest spells out every threshold; Analyze refuses to invent them.
func testRequest(spec domain.WindowSpec) Request {
	return Request{
		Window:      spec,
		TopN:        10,
		Buckets:     metrics.BucketSpec{Boundaries: []float64{3, 7}},
		NPS:         metrics.NPSConfig{Promoters: metrics.ScoreRange{Min: 4, Max: 5}, Detractors: metrics.ScoreRange{Min: 1, Max: 2}},
		Granularity: compare.GranularityMonthly,
		Health: &HealthSpec{
			Weights: metrics.HealthWeights{
				domain.MetricAverageReview: 0.5,
				domain.MetricNPSEstimate:   0.5,
			},
			Bounds: map[string]metrics.NormalizationBounds{
				domain.MetricAverageReview: {Min: domain.MinReviewScore, Max: domain.MaxReviewScore},
				domain.MetricNPSEstimate:   {Min: -100, Max: 100},
			},
		},
	}
}

func TestAnalysisService_Analyze(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	result, err := svc.Analyze(context.Background(), testRequest(domain.NewMonthSpec(2023, 6)))
	require.NoError(t, err)

	assert.Equal(t, 170.0, result.Revenue.TotalRevenue)
	assert.Equal(t, 2, result.Revenue.OrderCount)
	require.NotNil(t, result.Revenue.AverageOrderValue)
	assert.InDelta(t, 85.0, *result.Revenue.AverageOrderValue, 1e-9)

	// canceled O4 yields a row but contributes to no delivered metric
	assert.Equal(t, 3, result.RowCount)

	require.Len(t, result.Products.Categories, 2)
	assert.Equal(t, "toys", result.Products.Categories[0].Category)
	assert.Nil(t, result.Products.Other)

	require.NotNil(t, result.Experience.AverageReviewScore)
	assert.InDelta(t, 3.5, *result.Experience.AverageReviewScore, 1e-9)

	// equal weights on review (3.5 -> 62.5) and NPS
	// (one promoter, one detractor -> 0 -> 50)
	require.NotNil(t, result.HealthScore)
	assert.InDelta(t, 56.25, *result.HealthScore, 1e-9)
	assert.Equal(t, result.HealthScore, result.Metrics.Get(domain.MetricHealthScore))

	// no comparison requested
	assert.Nil(t, result.PreviousWindow)
	assert.Nil(t, result.Trend)
	assert.Empty(t, result.Comparison)

	// dataset-wide series always present
	require.Len(t, result.Monthly, 2)
	assert.Equal(t, "2023-05", result.Monthly[0].Label)
	assert.NotEmpty(t, result.Cohorts)
	assert.NotEmpty(t, result.DataVersion)
}

func TestAnalysisService_AnalyzeWithComparison(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	req := testRequest(domain.NewMonthSpec(2023, 6))
	req.WithCompare = true

	result, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, result.PreviousWindow)
	require.NotEmpty(t, result.Comparison)

	var revenue *domain.ComparisonResult
	for i := range result.Comparison {
		if result.Comparison[i].Metric == domain.MetricTotalRevenue {
			revenue = &result.Comparison[i]
		}
	}
	require.NotNil(t, revenue)
	require.NotNil(t, revenue.Delta)
	assert.InDelta(t, 130.0, *revenue.Delta, 1e-9)
	require.NotNil(t, revenue.GrowthPct)
	assert.InDelta(t, 325.0, *revenue.GrowthPct, 1e-9)

	require.NotNil(t, result.Trend)
	assert.Len(t, result.Trend.Previous, len(result.Trend.Current), "series are index aligned")
}

func TestAnalysisService_EmptyWindow(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	result, err := svc.Analyze(context.Background(), testRequest(domain.NewYearSpec(2019)))
	require.NoError(t, err)

	assert.True(t, result.Metrics.NoData)
	assert.Zero(t, result.RowCount)
	assert.Equal(t, 0.0, result.Revenue.TotalRevenue)
	assert.Nil(t, result.Revenue.AverageOrderValue)
	assert.Nil(t, result.HealthScore, "no computable component leaves the score nil")
}

func TestAnalysisService_InvalidHealthSpec(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	tests := []struct {
		name string
		spec HealthSpec
	}{
		{
			name: "weights do not sum to one",
			spec: HealthSpec{
				Weights: metrics.HealthWeights{domain.MetricAverageReview: 0.5},
				Bounds: map[string]metrics.NormalizationBounds{
					domain.MetricAverageReview: {Min: 1, Max: 5},
				},
			},
		},
		{
			name: "weight without bounds",
			spec: HealthSpec{
				Weights: metrics.HealthWeights{domain.MetricAverageReview: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(domain.NewMonthSpec(2023, 6))
			req.Health = &tt.spec

			_, err := svc.Analyze(context.Background(), req)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
		})
	}
}

func TestAnalysisService_HealthSpecUnknownMetric(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	req := testRequest(domain.NewMonthSpec(2023, 6))
	req.Health = &HealthSpec{
		Weights: metrics.HealthWeights{"profit_margin": 1},
		Bounds: map[string]metrics.NormalizationBounds{
			"profit_margin": {Min: 0, Max: 100},
		},
	}

	_, err := svc.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profit_margin")
}

func TestAnalysisService_RejectsMissingThresholds(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"missing top n", func(r *Request) { r.TopN = 0 }},
		{"missing delivery buckets", func(r *Request) { r.Buckets = metrics.BucketSpec{} }},
		{"missing nps ranges", func(r *Request) { r.NPS = metrics.NPSConfig{} }},
		{"missing health spec", func(r *Request) { r.Health = nil }},
		{"missing granularity with compare", func(r *Request) {
			r.WithCompare = true
			r.Granularity = ""
		}},
		{"bare window only", func(r *Request) {
			*r = Request{Window: r.Window}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest(domain.NewMonthSpec(2023, 6))
			tt.mutate(&req)

			_, err := svc.Analyze(context.Background(), req)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.ErrTypeConfig, appErr.Type)
		})
	}
}

func TestAnalysisService_MemoizesWindows(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)
	req := testRequest(domain.NewMonthSpec(2023, 6))

	_, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	entries := svc.cache.Len()
	assert.Positive(t, entries)

	_, err = svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entries, svc.cache.Len(), "repeated window hits the memo")
}

func TestAnalysisService_ReloadInvalidatesCache(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	first, err := svc.Analyze(context.Background(), testRequest(domain.NewMonthSpec(2023, 6)))
	require.NoError(t, err)

	version, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.DataVersion, version)
	assert.Zero(t, svc.cache.Len(), "stale versions are purged on reload")

	second, err := svc.Analyze(context.Background(), testRequest(domain.NewMonthSpec(2023, 6)))
	require.NoError(t, err)
	assert.Equal(t, version, second.DataVersion)
	assert.Equal(t, first.Revenue, second.Revenue)
}

func TestBuildSummary(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	result, err := svc.Analyze(context.Background(), testRequest(domain.NewMonthSpec(2023, 6)))
	require.NoError(t, err)

	summary := BuildSummary(result)
	assert.Equal(t, "2023-06-01..2023-06-30", summary.Window)

	byLabel := make(map[string]string)
	for _, line := range summary.Lines {
		byLabel[line.Label] = line.Value
	}
	assert.Equal(t, "170.00", byLabel["Total revenue"])
	assert.Equal(t, "2", byLabel["Delivered orders"])
	assert.Equal(t, "85.00", byLabel["Average order value"])

	require.NotEmpty(t, summary.Highlights)
	assert.Contains(t, summary.Highlights[0], "toys")
}

func TestBuildSummary_NoData(t *testing.T) {
	svc := NewAnalysisService(writeAnalysisFixture(t), nil)

	result, err := svc.Analyze(context.Background(), testRequest(domain.NewYearSpec(2019)))
	require.NoError(t, err)

	summary := BuildSummary(result)
	byLabel := make(map[string]string)
	for _, line := range summary.Lines {
		byLabel[line.Label] = line.Value
	}
	assert.Equal(t, "n/a", byLabel["Average order value"])
	assert.Equal(t, "n/a", byLabel["Business health score"])
	assert.Contains(t, summary.Highlights, "No delivered orders fell inside the analysis window")
}
