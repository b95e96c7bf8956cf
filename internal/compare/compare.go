// Package compare derives period-over-period deltas and aligned trend series
// from metric sets computed over two windows. All functions are pure; growth
// against a zero or missing previous value is nil, never an infinity.
package compare

import (
	"sort"

	"ecomlytics/pkg/contracts/domain"
)

// Compare derives the change of one metric between two periods. Delta needs
// both values; growth additionally needs a non-zero previous value and is nil
// otherwise, marking the metric as not computable.
func Compare(metric string, current, previous *float64) domain.ComparisonResult {
	result := domain.ComparisonResult{
		Metric:   metric,
		Current:  current,
		Previous: previous,
	}

	if current == nil || previous == nil {
		return result
	}

	delta := *current - *previous
	result.Delta = &delta

	if *previous == 0 {
		return result
	}
	growth := delta / *previous * 100
	result.GrowthPct = &growth

	return result
}

// CompareSets compares every metric present in both sets, sorted by metric
// name for stable output.
func CompareSets(current, previous domain.MetricSet) []domain.ComparisonResult {
	names := make([]string, 0, len(current.Values))
	for name := range current.Values {
		if _, ok := previous.Values[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	results := make([]domain.ComparisonResult, 0, len(names))
	for _, name := range names {
		results = append(results, Compare(name, current.Values[name], previous.Values[name]))
	}
	return results
}
