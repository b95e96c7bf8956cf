package metrics

import (
	"fmt"
	"sort"

	"ecomlytics/pkg/contracts/domain"
)

// DeliveryBucket aggregates rows whose delivery time falls in one caller-
// defined range, with the average review score observed in that range.
type DeliveryBucket struct {
	Label              string   `json:"label"`
	Rows               int      `json:"rows"`
	OrderCount         int      `json:"order_count"`
	AverageReviewScore *float64 `json:"average_review_score"`
}

// ExperienceMetrics summarizes customer satisfaction and delivery speed
type ExperienceMetrics struct {
	AverageReviewScore  *float64         `json:"average_review_score"`
	ReviewedRows        int              `json:"reviewed_rows"`
	NPSEstimate         *float64         `json:"nps_estimate"`
	AverageDeliveryDays *float64         `json:"average_delivery_days"`
	MedianDeliveryDays  *float64         `json:"median_delivery_days"`
	DeliveredRows       int              `json:"delivered_rows"`
	Buckets             []DeliveryBucket `json:"buckets"`
}

// CustomerExperience computes review and delivery metrics. Rows without a
// review score are excluded from every score denominator, never treated as a
// neutral score. Delivery days are derived only for rows carrying a delivered
// timestamp. Bucket boundaries and promoter/detractor ranges come from the
// caller; the engine embeds no thresholds of its own.
func CustomerExperience(rows []domain.AnalysisRow, buckets BucketSpec, nps NPSConfig) (ExperienceMetrics, error) {
	if err := buckets.Validate(); err != nil {
		return ExperienceMetrics{}, fmt.Errorf("customer experience: %w", err)
	}
	if err := nps.Validate(); err != nil {
		return ExperienceMetrics{}, fmt.Errorf("customer experience: %w", err)
	}

	var m ExperienceMetrics

	type bucketAgg struct {
		rows     int
		orders   map[string]struct{}
		scoreSum float64
		scored   int
	}
	bucketAggs := make([]bucketAgg, buckets.NumBuckets())
	for i := range bucketAggs {
		bucketAggs[i].orders = make(map[string]struct{})
	}

	var scoreSum float64
	var promoters, detractors int
	var deliverySum float64
	var deliveryDays []float64

	for _, row := range rows {
		if row.ReviewScore != nil {
			m.ReviewedRows++
			scoreSum += float64(*row.ReviewScore)
			if nps.Promoters.Contains(*row.ReviewScore) {
				promoters++
			}
			if nps.Detractors.Contains(*row.ReviewScore) {
				detractors++
			}
		}

		days := row.DeliveryDays()
		if days == nil {
			continue
		}
		m.DeliveredRows++
		deliverySum += *days
		deliveryDays = append(deliveryDays, *days)

		agg := &bucketAggs[buckets.Index(*days)]
		agg.rows++
		agg.orders[row.OrderID] = struct{}{}
		if row.ReviewScore != nil {
			agg.scoreSum += float64(*row.ReviewScore)
			agg.scored++
		}
	}

	m.AverageReviewScore = safeDivide(scoreSum, float64(m.ReviewedRows))
	if m.ReviewedRows > 0 {
		promoterPct := float64(promoters) / float64(m.ReviewedRows) * 100
		detractorPct := float64(detractors) / float64(m.ReviewedRows) * 100
		m.NPSEstimate = ptr(promoterPct - detractorPct)
	}

	m.AverageDeliveryDays = safeDivide(deliverySum, float64(m.DeliveredRows))
	if len(deliveryDays) > 0 {
		sort.Float64s(deliveryDays)
		m.MedianDeliveryDays = ptr(median(deliveryDays))
	}

	m.Buckets = make([]DeliveryBucket, buckets.NumBuckets())
	for i := range bucketAggs {
		m.Buckets[i] = DeliveryBucket{
			Label:              buckets.Label(i),
			Rows:               bucketAggs[i].rows,
			OrderCount:         len(bucketAggs[i].orders),
			AverageReviewScore: safeDivide(bucketAggs[i].scoreSum, float64(bucketAggs[i].scored)),
		}
	}

	return m, nil
}

// ToMetricSet projects the experience metrics into a named set
func (m ExperienceMetrics) ToMetricSet(w domain.Window) domain.MetricSet {
	ms := domain.NewMetricSet(w)
	ms.NoData = m.ReviewedRows == 0 && m.DeliveredRows == 0
	setNullable(ms, domain.MetricAverageReview, m.AverageReviewScore)
	setNullable(ms, domain.MetricNPSEstimate, m.NPSEstimate)
	setNullable(ms, domain.MetricAverageDelivery, m.AverageDeliveryDays)
	setNullable(ms, domain.MetricMedianDelivery, m.MedianDeliveryDays)
	return ms
}
