package compare

import (
	"fmt"
	"sort"
	"time"

	"ecomlytics/pkg/contracts/domain"
)

// Granularity selects the bucket size of a trend series
type Granularity string

const (
	GranularityDaily   Granularity = "day"
	GranularityWeekly  Granularity = "week"
	GranularityMonthly Granularity = "month"
)

// Validate checks the granularity is one of the supported values
func (g Granularity) Validate() error {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return nil
	default:
		return fmt.Errorf("unsupported granularity %q", string(g))
	}
}

// TrendPair holds two index-aligned series for overlay charting. Bucket i of
// Previous covers the same offset from its period start as bucket i of
// Current, regardless of calendar alignment across leap years or month
// lengths; both series always have the same length.
type TrendPair struct {
	Current  []domain.TrendPoint `json:"current"`
	Previous []domain.TrendPoint `json:"previous"`
}

// TrendSeries buckets delivered revenue of both periods at the given
// granularity. The bucket count is derived from the current window and
// reused verbatim for the previous window, so chart overlays align
// index-for-index.
func TrendSeries(currentRows, previousRows []domain.AnalysisRow, current, previous domain.Window, granularity Granularity) (TrendPair, error) {
	if err := granularity.Validate(); err != nil {
		return TrendPair{}, fmt.Errorf("trend series: %w", err)
	}

	count := bucketCount(current, granularity)
	return TrendPair{
		Current:  bucketRevenue(currentRows, current, granularity, count),
		Previous: bucketRevenue(previousRows, previous, granularity, count),
	}, nil
}

// bucketCount derives how many buckets the window spans at the granularity
func bucketCount(w domain.Window, g Granularity) int {
	switch g {
	case GranularityMonthly:
		return monthsBetween(w.Start, w.End) + 1
	case GranularityWeekly:
		days := int(w.End.Sub(w.Start).Hours()/24) + 1
		return (days + 6) / 7
	default:
		return int(w.End.Sub(w.Start).Hours()/24) + 1
	}
}

// bucketIndex maps a timestamp to its bucket offset from the window start
func bucketIndex(t time.Time, w domain.Window, g Granularity) int {
	switch g {
	case GranularityMonthly:
		return monthsBetween(w.Start, t)
	case GranularityWeekly:
		return int(t.Sub(w.Start).Hours()/24) / 7
	default:
		return int(t.Sub(w.Start).Hours() / 24)
	}
}

// bucketLabel names bucket i in the window's own calendar
func bucketLabel(i int, w domain.Window, g Granularity) string {
	switch g {
	case GranularityMonthly:
		return time.Date(w.Start.Year(), w.Start.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, i, 0).Format("2006-01")
	case GranularityWeekly:
		return w.Start.AddDate(0, 0, i*7).Format("2006-01-02")
	default:
		return w.Start.AddDate(0, 0, i).Format("2006-01-02")
	}
}

func bucketRevenue(rows []domain.AnalysisRow, w domain.Window, g Granularity, count int) []domain.TrendPoint {
	values := make([]float64, count)
	for _, row := range rows {
		if !row.IsDelivered() || !w.Contains(row.PurchaseTimestamp) {
			continue
		}
		idx := bucketIndex(row.PurchaseTimestamp, w, g)
		if idx < 0 || idx >= count {
			continue
		}
		values[idx] += row.Revenue()
	}

	points := make([]domain.TrendPoint, count)
	for i, v := range values {
		points[i] = domain.TrendPoint{Label: bucketLabel(i, w, g), Value: v}
	}
	return points
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MonthlyTrend is one row of the month-over-month trend table
type MonthlyTrend struct {
	Year              int      `json:"year"`
	Month             int      `json:"month"`
	Label             string   `json:"label"`
	Revenue           float64  `json:"revenue"`
	Orders            int      `json:"orders"`
	ItemsSold         int      `json:"items_sold"`
	AverageOrderValue *float64 `json:"average_order_value"`
	RevenueGrowthPct  *float64 `json:"revenue_growth_pct"`
	OrdersGrowthPct   *float64 `json:"orders_growth_pct"`
	AOVGrowthPct      *float64 `json:"aov_growth_pct"`
}

// MonthlyTrends aggregates delivered rows per calendar month and derives
// month-over-month growth rates. Growth is nil for the first month and for
// any month following a zero value. The result is sorted chronologically.
func MonthlyTrends(rows []domain.AnalysisRow) []MonthlyTrend {
	type monthAgg struct {
		revenue float64
		items   int
		orders  map[string]struct{}
	}

	aggs := make(map[int]*monthAgg) // keyed by year*12+month for ordering
	for _, row := range rows {
		if !row.IsDelivered() {
			continue
		}
		key := row.PurchaseTimestamp.Year()*12 + int(row.PurchaseTimestamp.Month()) - 1
		agg, ok := aggs[key]
		if !ok {
			agg = &monthAgg{orders: make(map[string]struct{})}
			aggs[key] = agg
		}
		agg.revenue += row.Revenue()
		agg.items++
		agg.orders[row.OrderID] = struct{}{}
	}

	keys := make([]int, 0, len(aggs))
	for key := range aggs {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	trends := make([]MonthlyTrend, 0, len(keys))
	for _, key := range keys {
		agg := aggs[key]
		year, month := key/12, key%12+1
		mt := MonthlyTrend{
			Year:      year,
			Month:     month,
			Label:     fmt.Sprintf("%04d-%02d", year, month),
			Revenue:   agg.revenue,
			Orders:    len(agg.orders),
			ItemsSold: agg.items,
		}
		if mt.Orders > 0 {
			aov := mt.Revenue / float64(mt.Orders)
			mt.AverageOrderValue = &aov
		}
		trends = append(trends, mt)
	}

	for i := 1; i < len(trends); i++ {
		prev, curr := trends[i-1], &trends[i]
		curr.RevenueGrowthPct = growthPct(curr.Revenue, prev.Revenue)
		curr.OrdersGrowthPct = growthPct(float64(curr.Orders), float64(prev.Orders))
		if curr.AverageOrderValue != nil && prev.AverageOrderValue != nil {
			curr.AOVGrowthPct = growthPct(*curr.AverageOrderValue, *prev.AverageOrderValue)
		}
	}

	return trends
}

func growthPct(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	g := (current - previous) / previous * 100
	return &g
}
