package exporter

import (
	"fmt"
	"log/slog"
	"strconv"

	"ecomlytics/internal/services"
)

// Report file names produced by a full export
const (
	CategoryFile   = "category_performance.csv"
	StateFile      = "state_performance.csv"
	ComparisonFile = "period_comparison.csv"
	MonthlyFile    = "monthly_trends.csv"
	BucketFile     = "delivery_buckets.csv"
	CohortFile     = "customer_cohorts.csv"
	SummaryFile    = "executive_summary.xlsx"
)

// ReportWriter renders one analysis result into the full report bundle
type ReportWriter struct {
	csv    *CSVWriter
	dir    string
	logger *slog.Logger
}

// NewReportWriter creates a report writer targeting dir
func NewReportWriter(dir string, logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{
		csv:    NewCSVWriter(dir, logger),
		dir:    dir,
		logger: logger,
	}
}

// WriteAll writes every report table plus the executive summary workbook.
// Comparison and trend tables are skipped when the result carries none.
func (w *ReportWriter) WriteAll(res *services.Result) error {
	if err := w.WriteCategories(res); err != nil {
		return err
	}
	if err := w.WriteStates(res); err != nil {
		return err
	}
	if err := w.WriteMonthlyTrends(res); err != nil {
		return err
	}
	if err := w.WriteDeliveryBuckets(res); err != nil {
		return err
	}
	if err := w.WriteCohorts(res); err != nil {
		return err
	}
	if len(res.Comparison) > 0 {
		if err := w.WriteComparison(res); err != nil {
			return err
		}
	}
	return w.WriteSummary(res)
}

// WriteCategories writes the ranked category table, including the synthetic
// aggregate row for truncated categories when present.
func (w *ReportWriter) WriteCategories(res *services.Result) error {
	headers := []string{"category", "revenue", "items_sold", "order_count", "average_item_price", "items_per_order", "market_share_pct"}

	records := make([][]string, 0, len(res.Products.Categories)+1)
	for _, c := range res.Products.Categories {
		records = append(records, []string{
			c.Category,
			money(c.Revenue),
			strconv.Itoa(c.ItemsSold),
			strconv.Itoa(c.OrderCount),
			nullable(c.AverageItemPrice, 2),
			nullable(c.ItemsPerOrder, 2),
			percent(c.MarketShare),
		})
	}
	if other := res.Products.Other; other != nil {
		records = append(records, []string{
			other.Category,
			money(other.Revenue),
			strconv.Itoa(other.ItemsSold),
			strconv.Itoa(other.OrderCount),
			nullable(other.AverageItemPrice, 2),
			nullable(other.ItemsPerOrder, 2),
			percent(other.MarketShare),
		})
	}
	return w.csv.WriteSimpleCSV(CategoryFile, headers, records)
}

// WriteStates writes the per-state breakdown ranked by revenue
func (w *ReportWriter) WriteStates(res *services.Result) error {
	headers := []string{"state", "revenue", "order_count", "customer_count", "revenue_per_customer", "revenue_share_pct"}

	records := make([][]string, 0, len(res.Geography.States))
	for _, s := range res.Geography.States {
		records = append(records, []string{
			s.State,
			money(s.Revenue),
			strconv.Itoa(s.OrderCount),
			strconv.Itoa(s.CustomerCount),
			nullable(s.RevenuePerCustomer, 2),
			percent(s.RevenueShare),
		})
	}
	return w.csv.WriteSimpleCSV(StateFile, headers, records)
}

// WriteComparison writes the period-over-period metric deltas
func (w *ReportWriter) WriteComparison(res *services.Result) error {
	headers := []string{"metric", "current", "previous", "delta", "growth_pct"}

	records := make([][]string, 0, len(res.Comparison))
	for _, c := range res.Comparison {
		records = append(records, []string{
			c.Metric,
			nullable(c.Current, 4),
			nullable(c.Previous, 4),
			nullable(c.Delta, 4),
			nullable(c.GrowthPct, 2),
		})
	}
	return w.csv.WriteSimpleCSV(ComparisonFile, headers, records)
}

// WriteMonthlyTrends writes the dataset-wide monthly revenue series
func (w *ReportWriter) WriteMonthlyTrends(res *services.Result) error {
	headers := []string{"month", "revenue", "orders", "items_sold", "average_order_value", "revenue_growth_pct", "orders_growth_pct", "aov_growth_pct"}

	records := make([][]string, 0, len(res.Monthly))
	for _, m := range res.Monthly {
		records = append(records, []string{
			m.Label,
			money(m.Revenue),
			strconv.Itoa(m.Orders),
			strconv.Itoa(m.ItemsSold),
			nullable(m.AverageOrderValue, 2),
			nullable(m.RevenueGrowthPct, 2),
			nullable(m.OrdersGrowthPct, 2),
			nullable(m.AOVGrowthPct, 2),
		})
	}
	return w.csv.WriteSimpleCSV(MonthlyFile, headers, records)
}

// WriteDeliveryBuckets writes delivery-speed buckets with review averages
func (w *ReportWriter) WriteDeliveryBuckets(res *services.Result) error {
	headers := []string{"bucket", "rows", "order_count", "average_review_score"}

	records := make([][]string, 0, len(res.Experience.Buckets))
	for _, b := range res.Experience.Buckets {
		records = append(records, []string{
			b.Label,
			strconv.Itoa(b.Rows),
			strconv.Itoa(b.OrderCount),
			nullable(b.AverageReviewScore, 2),
		})
	}
	return w.csv.WriteSimpleCSV(BucketFile, headers, records)
}

// WriteCohorts writes the retention table: one row per first-purchase month,
// one column per month offset.
func (w *ReportWriter) WriteCohorts(res *services.Result) error {
	width := 0
	for _, row := range res.Cohorts {
		if len(row.Customers) > width {
			width = len(row.Customers)
		}
	}

	headers := make([]string, 0, width+1)
	headers = append(headers, "cohort_month")
	for i := 0; i < width; i++ {
		headers = append(headers, fmt.Sprintf("month_%d", i))
	}

	records := make([][]string, 0, len(res.Cohorts))
	for _, row := range res.Cohorts {
		record := make([]string, 0, width+1)
		record = append(record, row.CohortMonth)
		for i := 0; i < width; i++ {
			if i < len(row.Customers) {
				record = append(record, strconv.Itoa(row.Customers[i]))
			} else {
				record = append(record, "")
			}
		}
		records = append(records, record)
	}
	return w.csv.WriteSimpleCSV(CohortFile, headers, records)
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func nullable(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
