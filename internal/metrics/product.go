package metrics

import (
	"fmt"
	"sort"

	"ecomlytics/pkg/contracts/domain"
)

// CategoryPerformance holds per-category aggregates over delivered rows
type CategoryPerformance struct {
	Category         string   `json:"category"`
	Revenue          float64  `json:"revenue"`
	ItemsSold        int      `json:"items_sold"`
	OrderCount       int      `json:"order_count"`
	AverageItemPrice *float64 `json:"average_item_price"`
	ItemsPerOrder    *float64 `json:"items_per_order"`
	MarketShare      float64  `json:"market_share"` // percent of delivered revenue
}

// ProductMetrics ranks category performance for one window. Categories holds
// the top-N by revenue; Other aggregates everything truncated by the cutoff so
// that shares always sum to 100% of the delivered revenue base. Other is nil
// when nothing was truncated.
type ProductMetrics struct {
	Categories   []CategoryPerformance `json:"categories"`
	Other        *CategoryPerformance  `json:"other,omitempty"`
	TotalRevenue float64               `json:"total_revenue"`
}

// ProductPerformance groups delivered rows by product category, ranks
// descending by revenue and truncates to topN. Market share is computed
// against the same delivered revenue base the revenue metrics use.
func ProductPerformance(rows []domain.AnalysisRow, topN TopNSpec) (ProductMetrics, error) {
	if err := topN.Validate(); err != nil {
		return ProductMetrics{}, fmt.Errorf("product performance: %w", err)
	}

	type categoryAgg struct {
		revenue  float64
		items    int
		priceSum float64
		orders   map[string]struct{}
	}

	aggs := make(map[string]*categoryAgg)
	var totalRevenue float64

	for _, row := range rows {
		if !row.IsDelivered() {
			continue
		}
		category := row.Category
		if category == "" {
			category = domain.UncategorizedLabel
		}
		agg, ok := aggs[category]
		if !ok {
			agg = &categoryAgg{orders: make(map[string]struct{})}
			aggs[category] = agg
		}
		agg.revenue += row.Revenue()
		agg.items++
		agg.priceSum += row.Price
		agg.orders[row.OrderID] = struct{}{}
		totalRevenue += row.Revenue()
	}

	perf := make([]CategoryPerformance, 0, len(aggs))
	for category, agg := range aggs {
		cp := CategoryPerformance{
			Category:         category,
			Revenue:          agg.revenue,
			ItemsSold:        agg.items,
			OrderCount:       len(agg.orders),
			AverageItemPrice: safeDivide(agg.priceSum, float64(agg.items)),
			ItemsPerOrder:    safeDivide(float64(agg.items), float64(len(agg.orders))),
		}
		if share := safeDivide(cp.Revenue*100, totalRevenue); share != nil {
			cp.MarketShare = *share
		}
		perf = append(perf, cp)
	}

	sort.Slice(perf, func(i, j int) bool {
		if perf[i].Revenue != perf[j].Revenue {
			return perf[i].Revenue > perf[j].Revenue
		}
		return perf[i].Category < perf[j].Category
	})

	result := ProductMetrics{TotalRevenue: totalRevenue}
	if len(perf) <= int(topN) {
		result.Categories = perf
		return result, nil
	}

	result.Categories = perf[:int(topN)]
	other := CategoryPerformance{Category: "other"}
	var otherPriceSum float64
	for _, cp := range perf[int(topN):] {
		other.Revenue += cp.Revenue
		other.ItemsSold += cp.ItemsSold
		other.OrderCount += cp.OrderCount
		other.MarketShare += cp.MarketShare
		if cp.AverageItemPrice != nil {
			otherPriceSum += *cp.AverageItemPrice * float64(cp.ItemsSold)
		}
	}
	other.AverageItemPrice = safeDivide(otherPriceSum, float64(other.ItemsSold))
	other.ItemsPerOrder = safeDivide(float64(other.ItemsSold), float64(other.OrderCount))
	result.Other = &other

	return result, nil
}

// Ranked flattens the metrics into an ordered (label, value, share) table for
// chart rendering, including the aggregated "other" bucket when present.
func (m ProductMetrics) Ranked() []domain.RankedRow {
	rows := make([]domain.RankedRow, 0, len(m.Categories)+1)
	for _, cp := range m.Categories {
		rows = append(rows, domain.RankedRow{Label: cp.Category, Value: cp.Revenue, Share: cp.MarketShare})
	}
	if m.Other != nil {
		rows = append(rows, domain.RankedRow{Label: m.Other.Category, Value: m.Other.Revenue, Share: m.Other.MarketShare})
	}
	return rows
}
