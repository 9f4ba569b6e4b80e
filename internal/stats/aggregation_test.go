package stats

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{0.4}, 0.4},
		{"pair", []float64{0.2, 0.8}, 0.5},
		{"many", []float64{1, 2, 3, 4}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.values); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Mean(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestExtent(t *testing.T) {
	min, max, span := Extent([]float64{3, -1, 7, 2})
	if min != -1 || max != 7 || span != 8 {
		t.Errorf("Extent = (%v, %v, %v), want (-1, 7, 8)", min, max, span)
	}

	min, max, span = Extent(nil)
	if min != 0 || max != 0 || span != 0 {
		t.Errorf("Extent(nil) = (%v, %v, %v), want zeros", min, max, span)
	}
}

func TestNormalizeValueZeroSpan(t *testing.T) {
	if got := NormalizeValue(5, 5, 0); got != 0 {
		t.Errorf("NormalizeValue with zero span = %v, want 0", got)
	}
	if got := NormalizeValue(5, 0, math.Inf(1)); got != 0 {
		t.Errorf("NormalizeValue with infinite span = %v, want 0", got)
	}
	if got := NormalizeValue(7.5, 5, 10); got != 0.25 {
		t.Errorf("NormalizeValue(7.5, 5, 10) = %v, want 0.25", got)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float64{10, 20, 30})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Normalize = %v, want %v", got, want)
		}
	}

	flat := Normalize([]float64{4, 4})
	if flat[0] != 0 || flat[1] != 0 {
		t.Errorf("Normalize of constant slice = %v, want zeros", flat)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{-1, 0, 1, 0},
		{0.5, 0, 1, 0.5},
		{12, 1, 10, 10},
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
