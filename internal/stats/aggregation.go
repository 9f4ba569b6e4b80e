package stats

import "math"

// Mean calculates the arithmetic mean of a slice of float64 values.
// Values are summed in slice order so results are reproducible.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return Sum(values) / float64(len(values))
}

// Sum adds values in slice order.
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Min returns the minimum value
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Extent returns min, max and span (max - min) in a single pass
func Extent(values []float64) (min, max, span float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, max - min
}

// NormalizeValue maps v into [0, 1] relative to min and span.
// A zero or non-finite span yields 0 instead of NaN/Inf.
func NormalizeValue(v, min, span float64) float64 {
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 0
	}
	return (v - min) / span
}

// Normalize normalizes values to [0, 1] range
func Normalize(values []float64) []float64 {
	min, _, span := Extent(values)

	result := make([]float64, len(values))
	for i, v := range values {
		result[i] = NormalizeValue(v, min, span)
	}

	return result
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
