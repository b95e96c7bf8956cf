package metrics

import (
	"sort"

	"ecomlytics/pkg/contracts/domain"
)

// StatePerformance holds per-state aggregates over delivered rows
type StatePerformance struct {
	State              string   `json:"state"`
	Revenue            float64  `json:"revenue"`
	OrderCount         int      `json:"order_count"`
	CustomerCount      int      `json:"customer_count"`
	RevenuePerCustomer *float64 `json:"revenue_per_customer"`
	AverageItemPrice   *float64 `json:"average_item_price"`
	RevenueShare       float64  `json:"revenue_share"` // percent of delivered revenue
}

// GeoMetrics holds all states ranked descending by revenue
type GeoMetrics struct {
	States       []StatePerformance `json:"states"`
	TotalRevenue float64            `json:"total_revenue"`
}

// GeographicDistribution groups delivered rows by customer state. Customer
// counts are distinct customer identifiers; revenue per customer is nil for a
// zero count, which cannot occur for a non-empty group but is still guarded.
func GeographicDistribution(rows []domain.AnalysisRow) GeoMetrics {
	type stateAgg struct {
		revenue   float64
		items     int
		priceSum  float64
		orders    map[string]struct{}
		customers map[string]struct{}
	}

	aggs := make(map[string]*stateAgg)
	var totalRevenue float64

	for _, row := range rows {
		if !row.IsDelivered() {
			continue
		}
		agg, ok := aggs[row.CustomerState]
		if !ok {
			agg = &stateAgg{orders: make(map[string]struct{}), customers: make(map[string]struct{})}
			aggs[row.CustomerState] = agg
		}
		agg.revenue += row.Revenue()
		agg.items++
		agg.priceSum += row.Price
		agg.orders[row.OrderID] = struct{}{}
		agg.customers[row.CustomerID] = struct{}{}
		totalRevenue += row.Revenue()
	}

	states := make([]StatePerformance, 0, len(aggs))
	for state, agg := range aggs {
		sp := StatePerformance{
			State:              state,
			Revenue:            agg.revenue,
			OrderCount:         len(agg.orders),
			CustomerCount:      len(agg.customers),
			RevenuePerCustomer: safeDivide(agg.revenue, float64(len(agg.customers))),
			AverageItemPrice:   safeDivide(agg.priceSum, float64(agg.items)),
		}
		if share := safeDivide(sp.Revenue*100, totalRevenue); share != nil {
			sp.RevenueShare = *share
		}
		states = append(states, sp)
	}

	sort.Slice(states, func(i, j int) bool {
		if states[i].Revenue != states[j].Revenue {
			return states[i].Revenue > states[j].Revenue
		}
		return states[i].State < states[j].State
	})

	return GeoMetrics{States: states, TotalRevenue: totalRevenue}
}

// TopByCustomers returns the n states with the most distinct customers,
// descending. Returns fewer when there are fewer states.
func (m GeoMetrics) TopByCustomers(n int) []StatePerformance {
	sorted := make([]StatePerformance, len(m.States))
	copy(sorted, m.States)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CustomerCount != sorted[j].CustomerCount {
			return sorted[i].CustomerCount > sorted[j].CustomerCount
		}
		return sorted[i].State < sorted[j].State
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Ranked flattens states into an ordered (label, value, share) table
func (m GeoMetrics) Ranked() []domain.RankedRow {
	rows := make([]domain.RankedRow, 0, len(m.States))
	for _, sp := range m.States {
		rows = append(rows, domain.RankedRow{Label: sp.State, Value: sp.Revenue, Share: sp.RevenueShare})
	}
	return rows
}
