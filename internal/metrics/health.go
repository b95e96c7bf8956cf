package metrics

import (
	"fmt"
	"math"
)

// weightSumTolerance absorbs floating error when checking weights sum to 1
const weightSumTolerance = 1e-9

// NormalizationBounds maps a raw metric value linearly onto the 0-100 health
// scale. Values outside the bounds clamp to the scale's ends.
type NormalizationBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Validate checks the bounds span a non-empty interval
func (b NormalizationBounds) Validate() error {
	if b.Max <= b.Min {
		return fmt.Errorf("normalization bounds: max %.4f must exceed min %.4f", b.Max, b.Min)
	}
	return nil
}

// Scale normalizes v into [0, 100]
func (b NormalizationBounds) Scale(v float64) float64 {
	scaled := (v - b.Min) / (b.Max - b.Min) * 100
	return math.Min(100, math.Max(0, scaled))
}

// HealthComponent is one caller-selected input to the composite score
type HealthComponent struct {
	Name   string              `json:"name"`
	Value  *float64            `json:"value"`
	Bounds NormalizationBounds `json:"bounds"`
}

// HealthWeights maps component names to their weight in the composite score
type HealthWeights map[string]float64

// Validate checks weights are present, non-negative and sum to 1
func (w HealthWeights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("health weights: at least one weight is required")
	}
	var sum float64
	for name, weight := range w {
		if weight < 0 {
			return fmt.Errorf("health weights: %q is negative (%.4f)", name, weight)
		}
		sum += weight
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("health weights: must sum to 1, got %.6f", sum)
	}
	return nil
}

// Normalize rescales the weights to sum to 1. It never runs implicitly;
// callers that want best-effort weights must invoke it themselves.
func (w HealthWeights) Normalize() {
	var sum float64
	for _, weight := range w {
		sum += weight
	}
	if sum == 0 {
		return
	}
	for name := range w {
		w[name] /= sum
	}
}

// BusinessHealthScore combines the components into one weighted 0-100 score.
// Every weight must match a component by name and every component must carry
// a weight. Components whose value is nil are skipped and the remaining
// weights renormalized; the result is nil when no component has a value.
func BusinessHealthScore(components []HealthComponent, weights HealthWeights) (*float64, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if len(components) != len(weights) {
		return nil, fmt.Errorf("health score: %d components do not match %d weights",
			len(components), len(weights))
	}

	seen := make(map[string]struct{}, len(components))
	for _, comp := range components {
		if _, dup := seen[comp.Name]; dup {
			return nil, fmt.Errorf("health score: duplicate component %q", comp.Name)
		}
		seen[comp.Name] = struct{}{}
		if _, ok := weights[comp.Name]; !ok {
			return nil, fmt.Errorf("health score: component %q has no weight", comp.Name)
		}
		if err := comp.Bounds.Validate(); err != nil {
			return nil, fmt.Errorf("health score: component %q: %w", comp.Name, err)
		}
	}

	var score, weightSum float64
	for _, comp := range components {
		if comp.Value == nil {
			continue
		}
		weight := weights[comp.Name]
		score += comp.Bounds.Scale(*comp.Value) * weight
		weightSum += weight
	}

	if weightSum == 0 {
		return nil, nil
	}
	return ptr(score / weightSum), nil
}
