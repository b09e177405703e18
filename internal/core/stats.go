package core

import (
	"math"
	"slices"
)

// Mean returns the arithmetic mean. ok is false for an empty series.
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// Median returns the middle value of an ascending sorted copy, or the average
// of the two middle values for even lengths. ok is false for an empty series.
func Median(values []float64) (median float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}

// Discrepancy is |mean - median| / median, in percent. A zero median yields +Inf.
func Discrepancy(mean, median float64) float64 {
	if median == 0 {
		return math.Inf(1)
	}
	return math.Abs((mean-median)/median) * 100
}
