package stats

import (
	"math"
	"testing"
)

func TestQuantile(t *testing.T) {
	values := []float64{4, 1, 3, 2, 5}
	tests := []struct {
		q, want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.6, 3.4},
		{1, 5},
		{-1, 1},
		{2, 5},
	}
	for _, tt := range tests {
		if got := Quantile(values, tt.q); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Quantile(%v) = %v, want %v", tt.q, got, tt.want)
		}
	}
	if values[0] != 4 {
		t.Error("Quantile sorted its input")
	}
	if got := Percentile(values, 50); got != 3 {
		t.Errorf("Percentile(50) = %v", got)
	}
	if Quantile(nil, 0.5) != 0 {
		t.Error("empty quantile not 0")
	}
}

func TestFiveNumberSummary(t *testing.T) {
	min, q1, median, q3, max := FiveNumberSummary([]float64{9, 1, 5, 3, 7})
	if min != 1 || q1 != 3 || median != 5 || q3 != 7 || max != 9 {
		t.Errorf("summary = %v %v %v %v %v", min, q1, median, q3, max)
	}
}

func TestNormalizedEntropy(t *testing.T) {
	tests := []struct {
		name   string
		counts []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single bin", []float64{7}, 0},
		{"concentrated", []float64{10, 0, 0, 0}, 0},
		{"uniform", []float64{3, 3, 3, 3}, 1},
		{"half", []float64{1, 1, 0, 0}, 0.5},
		{"no mass", []float64{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizedEntropy(tt.counts); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("NormalizedEntropy(%v) = %v, want %v", tt.counts, got, tt.want)
			}
		})
	}
}

func TestPearsonCorrelation(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		want float64
	}{
		{"positive", []float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{"negative", []float64{1, 2, 3}, []float64{3, 2, 1}, -1},
		{"constant", []float64{1, 2, 3}, []float64{5, 5, 5}, 0},
		{"mismatched", []float64{1, 2}, []float64{1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PearsonCorrelation(tt.x, tt.y); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("PearsonCorrelation = %v, want %v", got, tt.want)
			}
		})
	}
}
