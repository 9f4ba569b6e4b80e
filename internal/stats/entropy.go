package stats

import (
	"math"
)

// ShannonEntropy calculates the Shannon entropy of a distribution given as
// frequency counts or probabilities. Returns entropy in bits.
func ShannonEntropy(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := Sum(values)
	if sum == 0 {
		return 0
	}

	var entropy float64
	for _, v := range values {
		if v > 0 {
			p := v / sum
			entropy -= p * math.Log2(p)
		}
	}

	return entropy
}

// NormalizedEntropy divides the Shannon entropy by log2(n), giving 0 for
// all mass in one category and 1 for a uniform spread.
func NormalizedEntropy(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	return ShannonEntropy(values) / math.Log2(float64(len(values)))
}
