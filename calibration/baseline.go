package calibration

import (
	"fmt"
	"slices"
)

// Reduction collapses calibration samples into one noise-floor value.
type Reduction string

const (
	Median Reduction = "median"
	Mean   Reduction = "mean"
)

// ParseReduction accepts "median" or "mean".
func ParseReduction(s string) (Reduction, error) {
	switch Reduction(s) {
	case Median, Mean:
		return Reduction(s), nil
	}
	return "", fmt.Errorf("unknown baseline reduction %q (use median or mean)", s)
}

// Reduce applies r to samples. It reports false for an empty slice.
func (r Reduction) Reduce(samples []int) (int, bool) {
	if r == Mean {
		return MeanOf(samples)
	}
	return MedianOf(samples)
}

// MedianOf returns the middle sample after sorting, or the truncated average of
// the two middle samples for an even count. samples is not modified.
func MedianOf(samples []int) (int, bool) {
	n := len(samples)
	if n == 0 {
		return 0, false
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2, true
	}
	return sorted[n/2], true
}

// MeanOf returns the integer mean of samples.
func MeanOf(samples []int) (int, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	var sum int64
	for _, s := range samples {
		sum += int64(s)
	}
	return int(sum / int64(len(samples))), true
}

// Baseline reduces samples and clamps the result to at least minBaseline.
// No samples yields minBaseline.
func Baseline(samples []int, r Reduction, minBaseline int) int {
	v, ok := r.Reduce(samples)
	if !ok {
		return minBaseline
	}
	return max(v, minBaseline)
}
