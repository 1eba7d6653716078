package analysis

import "sort"

// percentiles returns the p50/p95/p99 values of a sample using floor-indexed
// rank selection. Empty input yields zeros; a single value is returned for
// all three ranks.
func percentiles(values []float64) (p50, p95, p99 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	if n == 1 {
		v := sorted[0]
		return v, v, v
	}

	return sorted[rankIndex(n, 50)], sorted[rankIndex(n, 95)], sorted[rankIndex(n, 99)]
}

func rankIndex(n, pct int) int {
	idx := n * pct / 100
	if idx > n-1 {
		return n - 1
	}
	return idx
}
