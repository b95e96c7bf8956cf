// Package metrics computes business performance metrics from assembled
// analysis rows: revenue, product category performance, geographic
// distribution, customer experience, and a composite health score.
//
// Every function in this package is a pure transform: it never mutates its
// input, holds no state between calls, and is safe to invoke concurrently.
// Revenue-bearing metrics are defined over delivered orders only. A zero
// denominator yields a nil pointer for that derived value, never NaN, an
// infinity, or a panic; an empty input yields zero counts and nil ratios.
//
// Business thresholds (delivery buckets, promoter/detractor score ranges,
// top-N cutoffs, health weights) are required caller inputs. The package
// embeds no defaults for any of them and rejects calls that omit them.
package metrics
