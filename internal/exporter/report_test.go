package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ecomlytics/internal/compare"
	"ecomlytics/internal/metrics"
	"ecomlytics/internal/services"
	"ecomlytics/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }

func fixtureResult() *services.Result {
	window := domain.Window{
		Start: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond),
	}
	set := domain.NewMetricSet(window)
	set.Set(domain.MetricTotalRevenue, 170)

	return &services.Result{
		GeneratedAt: time.Date(2023, 7, 2, 9, 0, 0, 0, time.UTC),
		Window:      window,
		Metrics:     set,
		Revenue: metrics.RevenueMetrics{
			TotalRevenue:      170,
			OrderCount:        2,
			ItemsSold:         2,
			AverageOrderValue: f64(85),
		},
		Products: metrics.ProductMetrics{
			Categories: []metrics.CategoryPerformance{
				{Category: "toys", Revenue: 110, ItemsSold: 1, OrderCount: 1, AverageItemPrice: f64(100), ItemsPerOrder: f64(1), MarketShare: 64.7},
			},
			Other: &metrics.CategoryPerformance{
				Category: "other", Revenue: 60, ItemsSold: 1, OrderCount: 1, MarketShare: 35.3,
			},
			TotalRevenue: 170,
		},
		Geography: metrics.GeoMetrics{
			States: []metrics.StatePerformance{
				{State: "SP", Revenue: 110, OrderCount: 1, CustomerCount: 1, RevenuePerCustomer: f64(110), RevenueShare: 64.7},
			},
			TotalRevenue: 170,
		},
		Experience: metrics.ExperienceMetrics{
			AverageReviewScore: f64(3.5),
			Buckets: []metrics.DeliveryBucket{
				{Label: "0-3 days", Rows: 0, OrderCount: 0},
				{Label: "4-7 days", Rows: 1, OrderCount: 1, AverageReviewScore: f64(5)},
				{Label: "8+ days", Rows: 1, OrderCount: 1, AverageReviewScore: f64(2)},
			},
		},
		HealthScore: f64(56.25),
		Comparison: []domain.ComparisonResult{
			{Metric: domain.MetricTotalRevenue, Current: f64(170), Previous: f64(40), Delta: f64(130), GrowthPct: f64(325)},
		},
		Monthly: []compare.MonthlyTrend{
			{Year: 2023, Month: 5, Label: "2023-05", Revenue: 40, Orders: 1, ItemsSold: 1, AverageOrderValue: f64(40)},
			{Year: 2023, Month: 6, Label: "2023-06", Revenue: 170, Orders: 2, ItemsSold: 2, AverageOrderValue: f64(85), RevenueGrowthPct: f64(325)},
		},
		Cohorts: []compare.CohortRow{
			{CohortMonth: "2023-05", Customers: []int{1, 1}},
			{CohortMonth: "2023-06", Customers: []int{1}},
		},
	}
}

func readReport(t *testing.T, dir, name string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	rows, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestReportWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewReportWriter(dir, nil).WriteAll(fixtureResult()))

	for _, name := range []string{CategoryFile, StateFile, ComparisonFile, MonthlyFile, BucketFile, CohortFile, SummaryFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestReportWriter_Categories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewReportWriter(dir, nil).WriteCategories(fixtureResult()))

	rows := readReport(t, dir, CategoryFile)
	require.Len(t, rows, 3, "header, top category, other bucket")
	assert.Equal(t, "category", rows[0][0])
	assert.Equal(t, []string{"toys", "110.00", "1", "1", "100.00", "1.00", "64.70"}, rows[1])
	assert.Equal(t, "other", rows[2][0])
}

func TestReportWriter_ComparisonAndNullables(t *testing.T) {
	dir := t.TempDir()
	res := fixtureResult()
	res.Comparison = append(res.Comparison, domain.ComparisonResult{
		Metric: domain.MetricAverageOrderValue, Current: f64(85),
	})
	require.NoError(t, NewReportWriter(dir, nil).WriteComparison(res))

	rows := readReport(t, dir, ComparisonFile)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"total_revenue", "170.0000", "40.0000", "130.0000", "325.00"}, rows[1])
	assert.Equal(t, "", rows[2][2], "missing previous renders empty")
	assert.Equal(t, "", rows[2][4], "uncomputable growth renders empty")
}

func TestReportWriter_Cohorts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewReportWriter(dir, nil).WriteCohorts(fixtureResult()))

	rows := readReport(t, dir, CohortFile)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"cohort_month", "month_0", "month_1"}, rows[0])
	assert.Equal(t, []string{"2023-05", "1", "1"}, rows[1])
	assert.Equal(t, []string{"2023-06", "1", ""}, rows[2], "short cohorts pad with empty cells")
}

func TestReportWriter_SkipsComparisonWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	res := fixtureResult()
	res.Comparison = nil
	require.NoError(t, NewReportWriter(dir, nil).WriteAll(res))

	_, err := os.Stat(filepath.Join(dir, ComparisonFile))
	assert.True(t, os.IsNotExist(err))
}

func TestReportWriter_Summary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewReportWriter(dir, nil).WriteSummary(fixtureResult()))

	f, err := excelize.OpenFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Business Performance Summary", title)

	label, err := f.GetCellValue("Summary", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Total revenue", label)
	value, err := f.GetCellValue("Summary", "B5")
	require.NoError(t, err)
	assert.Equal(t, "170.00", value)

	month, err := f.GetCellValue("Monthly", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2023-05", month)
}
