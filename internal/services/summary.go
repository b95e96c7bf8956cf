package services

import (
	"fmt"
	"time"
)

// SummaryLine is one labeled KPI in the executive summary
type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary is the human-readable executive digest of one analysis run
type Summary struct {
	Title       string        `json:"title"`
	GeneratedAt time.Time     `json:"generated_at"`
	Window      string        `json:"window"`
	Lines       []SummaryLine `json:"lines"`
	Highlights  []string      `json:"highlights"`
}

// BuildSummary condenses an analysis result into headline KPIs and a few
// narrative highlights. Metrics that were not computable render as "n/a".
func BuildSummary(res *Result) Summary {
	s := Summary{
		Title:       "Business Performance Summary",
		GeneratedAt: res.GeneratedAt,
		Window:      res.Window.String(),
	}

	s.Lines = []SummaryLine{
		{Label: "Total revenue", Value: fmt.Sprintf("%.2f", res.Revenue.TotalRevenue)},
		{Label: "Delivered orders", Value: fmt.Sprintf("%d", res.Revenue.OrderCount)},
		{Label: "Items sold", Value: fmt.Sprintf("%d", res.Revenue.ItemsSold)},
		{Label: "Average order value", Value: formatNullable(res.Revenue.AverageOrderValue, "%.2f")},
		{Label: "Median order value", Value: formatNullable(res.Revenue.MedianOrderValue, "%.2f")},
		{Label: "Average review score", Value: formatNullable(res.Experience.AverageReviewScore, "%.2f")},
		{Label: "NPS estimate", Value: formatNullable(res.Experience.NPSEstimate, "%.1f")},
		{Label: "Average delivery days", Value: formatNullable(res.Experience.AverageDeliveryDays, "%.1f")},
		{Label: "Business health score", Value: formatNullable(res.HealthScore, "%.1f")},
	}

	if len(res.Products.Categories) > 0 {
		top := res.Products.Categories[0]
		s.Highlights = append(s.Highlights, fmt.Sprintf(
			"Top category %q generated %.2f in revenue (%.1f%% of total)",
			top.Category, top.Revenue, top.MarketShare))
	}
	if len(res.Geography.States) > 0 {
		top := res.Geography.States[0]
		s.Highlights = append(s.Highlights, fmt.Sprintf(
			"Top state %s contributed %.2f in revenue from %d customers",
			top.State, top.Revenue, top.CustomerCount))
	}
	if best, worst, ok := bestAndWorstMonth(res); ok {
		s.Highlights = append(s.Highlights,
			fmt.Sprintf("Strongest month on record: %s (%.2f)", best.Month, best.Revenue),
			fmt.Sprintf("Weakest month on record: %s (%.2f)", worst.Month, worst.Revenue))
	}
	if res.Metrics.NoData {
		s.Highlights = append(s.Highlights, "No delivered orders fell inside the analysis window")
	}

	return s
}

func bestAndWorstMonth(res *Result) (best, worst monthSummary, ok bool) {
	if len(res.Monthly) == 0 {
		return monthSummary{}, monthSummary{}, false
	}

	best = monthSummary{res.Monthly[0].Label, res.Monthly[0].Revenue}
	worst = best
	for _, m := range res.Monthly[1:] {
		if m.Revenue > best.Revenue {
			best = monthSummary{m.Label, m.Revenue}
		}
		if m.Revenue < worst.Revenue {
			worst = monthSummary{m.Label, m.Revenue}
		}
	}
	return best, worst, true
}

type monthSummary struct {
	Month   string
	Revenue float64
}

func formatNullable(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
