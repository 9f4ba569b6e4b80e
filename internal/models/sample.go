package models

import "math"

// Sample is a single scatter point. X and Y are normalized to [0,1]; Z is the
// value aggregated into tile colour, also in [0,1].
type Sample struct {
	Name string  `json:"name" yaml:"name" db:"name"`
	X    float64 `json:"x" yaml:"x" db:"x"`
	Y    float64 `json:"y" yaml:"y" db:"y"`
	Z    float64 `json:"z" yaml:"z" db:"z"`
}

// Finite reports whether all coordinates are real numbers.
func (s Sample) Finite() bool {
	return isFinite(s.X) && isFinite(s.Y) && isFinite(s.Z)
}

// InUnitSquare reports whether X and Y lie in [0,1].
func (s Sample) InUnitSquare() bool {
	return s.X >= 0 && s.X <= 1 && s.Y >= 0 && s.Y <= 1
}

// ClampZ returns a copy with Z limited to [0,1].
func (s Sample) ClampZ() Sample {
	s.Z = math.Min(1, math.Max(0, s.Z))
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Range is the raw extent of one axis before normalization.
type Range struct {
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
	Span float64 `json:"span" yaml:"span"`
}

// UnitRange is the range of already normalized data.
func UnitRange() Range {
	return Range{Min: 0, Max: 1, Span: 1}
}

// At maps a fraction of the axis back to the raw value.
func (r Range) At(fraction float64) float64 {
	return r.Min + r.Span*fraction
}
