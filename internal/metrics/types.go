package metrics

import (
	"fmt"
	"math"

	"ecomlytics/pkg/contracts/domain"
)

// TopNSpec is the cutoff for ranked tables
type TopNSpec int

// Validate checks the cutoff is positive
func (n TopNSpec) Validate() error {
	if n <= 0 {
		return fmt.Errorf("top-n must be positive, got %d", int(n))
	}
	return nil
}

// BucketSpec defines delivery-time buckets by their upper boundaries in days.
// Boundaries must be strictly increasing. N boundaries produce N+1 buckets:
// [0, b0], (b0, b1], ..., (bN-1, +inf).
type BucketSpec struct {
	Boundaries []float64 `json:"boundaries"`
}

// Validate checks boundaries are present and strictly increasing
func (b BucketSpec) Validate() error {
	if len(b.Boundaries) == 0 {
		return fmt.Errorf("bucket spec: at least one boundary is required")
	}
	for i, bound := range b.Boundaries {
		if bound < 0 {
			return fmt.Errorf("bucket spec: boundary %d is negative (%.2f)", i, bound)
		}
		if i > 0 && bound <= b.Boundaries[i-1] {
			return fmt.Errorf("bucket spec: boundaries must be strictly increasing, got %.2f after %.2f",
				bound, b.Boundaries[i-1])
		}
	}
	return nil
}

// NumBuckets returns the number of buckets the spec produces
func (b BucketSpec) NumBuckets() int {
	return len(b.Boundaries) + 1
}

// Index returns the bucket index for a delivery duration in days
func (b BucketSpec) Index(days float64) int {
	for i, bound := range b.Boundaries {
		if days <= bound {
			return i
		}
	}
	return len(b.Boundaries)
}

// Label returns a human-readable label for bucket i, e.g. "0-3 days",
// "4-7 days", "8+ days".
func (b BucketSpec) Label(i int) string {
	if i == 0 {
		return fmt.Sprintf("0-%s days", trimFloat(b.Boundaries[0]))
	}
	if i >= len(b.Boundaries) {
		return fmt.Sprintf("%s+ days", trimFloat(b.Boundaries[len(b.Boundaries)-1]+1))
	}
	return fmt.Sprintf("%s-%s days", trimFloat(b.Boundaries[i-1]+1), trimFloat(b.Boundaries[i]))
}

func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.1f", f)
}

// ScoreRange is an inclusive review score range
type ScoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether score falls inside the range
func (r ScoreRange) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// Validate checks the range sits inside the review score scale
func (r ScoreRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("score range: min %d exceeds max %d", r.Min, r.Max)
	}
	if r.Min < domain.MinReviewScore || r.Max > domain.MaxReviewScore {
		return fmt.Errorf("score range: %d-%d outside review scale %d-%d",
			r.Min, r.Max, domain.MinReviewScore, domain.MaxReviewScore)
	}
	return nil
}

// NPSConfig carries caller-supplied promoter and detractor score ranges for
// the NPS-style estimate. The ranges must not overlap.
type NPSConfig struct {
	Promoters  ScoreRange `json:"promoters"`
	Detractors ScoreRange `json:"detractors"`
}

// Validate checks both ranges and their disjointness
func (c NPSConfig) Validate() error {
	if err := c.Promoters.Validate(); err != nil {
		return fmt.Errorf("promoters: %w", err)
	}
	if err := c.Detractors.Validate(); err != nil {
		return fmt.Errorf("detractors: %w", err)
	}
	if c.Detractors.Max >= c.Promoters.Min && c.Promoters.Max >= c.Detractors.Min {
		return fmt.Errorf("promoter range %d-%d overlaps detractor range %d-%d",
			c.Promoters.Min, c.Promoters.Max, c.Detractors.Min, c.Detractors.Max)
	}
	return nil
}

// ptr returns a pointer to v, for nullable derived values
func ptr(v float64) *float64 {
	return &v
}

// safeDivide returns a/b, or nil when the denominator is zero
func safeDivide(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	return ptr(a / b)
}
