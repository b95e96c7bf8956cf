package domain

// Canonical metric names shared by the engine, comparison math and exporters
const (
	MetricTotalRevenue      = "total_revenue"
	MetricOrderCount        = "order_count"
	MetricItemsSold         = "items_sold"
	MetricAverageOrderValue = "average_order_value"
	MetricMedianOrderValue  = "median_order_value"
	MetricOrderValueStdDev  = "order_value_std_dev"
	MetricAverageItemPrice  = "average_item_price"
	MetricAverageReview     = "average_review_score"
	MetricAverageDelivery   = "average_delivery_days"
	MetricMedianDelivery    = "median_delivery_days"
	MetricNPSEstimate       = "nps_estimate"
	MetricHealthScore       = "health_score"
)

// MetricSet is the named collection of computed metric values for one window.
// A nil value means the metric was not computable (zero denominator); it is
// never NaN or infinite. NoData marks a window that matched zero rows.
type MetricSet struct {
	Window Window              `json:"window"`
	NoData bool                `json:"no_data"`
	Values map[string]*float64 `json:"values"`
}

// NewMetricSet creates an empty metric set tagged with its window
func NewMetricSet(w Window) MetricSet {
	return MetricSet{Window: w, Values: make(map[string]*float64)}
}

// Set records a computed value under name
func (ms MetricSet) Set(name string, value float64) {
	v := value
	ms.Values[name] = &v
}

// SetNil records a metric as not computable
func (ms MetricSet) SetNil(name string) {
	ms.Values[name] = nil
}

// Get returns the value for name, or nil when absent or not computable
func (ms MetricSet) Get(name string) *float64 {
	return ms.Values[name]
}

// ComparisonResult captures period-over-period change for one metric.
// GrowthPct is nil when the previous value is zero or missing.
type ComparisonResult struct {
	Metric    string   `json:"metric"`
	Current   *float64 `json:"current"`
	Previous  *float64 `json:"previous"`
	Delta     *float64 `json:"delta"`
	GrowthPct *float64 `json:"growth_pct"`
}

// Computable reports whether growth could be derived
func (cr ComparisonResult) Computable() bool {
	return cr.GrowthPct != nil
}

// RankedRow is one entry of an ordered label/value table (category or state
// rankings) with its share of the total, for chart rendering.
type RankedRow struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Share float64 `json:"share"`
}

// TrendPoint is one bucket of a time series for overlay charting
type TrendPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}
