package metrics

import (
	"math"
	"sort"

	"ecomlytics/pkg/contracts/domain"
)

// RevenueMetrics summarizes revenue over delivered orders in one window.
// Ratio fields are nil when their denominator is zero.
type RevenueMetrics struct {
	TotalRevenue      float64  `json:"total_revenue"`
	OrderCount        int      `json:"order_count"`
	ItemsSold         int      `json:"items_sold"`
	AverageOrderValue *float64 `json:"average_order_value"`
	MedianOrderValue  *float64 `json:"median_order_value"`
	OrderValueStdDev  *float64 `json:"order_value_std_dev"`
	AverageItemPrice  *float64 `json:"average_item_price"`
}

// Revenue computes revenue metrics over the delivered rows in the input.
// Orders in any other status contribute nothing. The order count is the
// number of distinct delivered order identifiers, so a three-item order
// counts once in the average-order-value denominator.
func Revenue(rows []domain.AnalysisRow) RevenueMetrics {
	var m RevenueMetrics

	orderValues := make(map[string]float64)
	var priceSum float64

	for _, row := range rows {
		if !row.IsDelivered() {
			continue
		}
		m.TotalRevenue += row.Revenue()
		m.ItemsSold++
		priceSum += row.Price
		orderValues[row.OrderID] += row.Revenue()
	}

	m.OrderCount = len(orderValues)
	m.AverageOrderValue = safeDivide(m.TotalRevenue, float64(m.OrderCount))
	m.AverageItemPrice = safeDivide(priceSum, float64(m.ItemsSold))

	if m.OrderCount > 0 {
		values := make([]float64, 0, len(orderValues))
		for _, v := range orderValues {
			values = append(values, v)
		}
		sort.Float64s(values)
		m.MedianOrderValue = ptr(median(values))
		m.OrderValueStdDev = ptr(stdDev(values, *m.AverageOrderValue))
	}

	return m
}

// ToMetricSet projects the metrics into a named set tagged with its window
func (m RevenueMetrics) ToMetricSet(w domain.Window) domain.MetricSet {
	ms := domain.NewMetricSet(w)
	ms.NoData = m.ItemsSold == 0
	ms.Set(domain.MetricTotalRevenue, m.TotalRevenue)
	ms.Set(domain.MetricOrderCount, float64(m.OrderCount))
	ms.Set(domain.MetricItemsSold, float64(m.ItemsSold))
	setNullable(ms, domain.MetricAverageOrderValue, m.AverageOrderValue)
	setNullable(ms, domain.MetricMedianOrderValue, m.MedianOrderValue)
	setNullable(ms, domain.MetricOrderValueStdDev, m.OrderValueStdDev)
	setNullable(ms, domain.MetricAverageItemPrice, m.AverageItemPrice)
	return ms
}

func setNullable(ms domain.MetricSet, name string, v *float64) {
	if v == nil {
		ms.SetNil(name)
		return
	}
	ms.Set(name, *v)
}

// median expects values to be sorted ascending and non-empty
func median(values []float64) float64 {
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

// stdDev is the population standard deviation around mean
func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSquared float64
	for _, v := range values {
		sumSquared += (v - mean) * (v - mean)
	}
	return math.Sqrt(sumSquared / float64(len(values)))
}
