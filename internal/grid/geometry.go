// Package grid derives the heatmap cell layout from the container's pixel size.
package grid

import "math"

// Geometry describes how many fixed-size cells fit into the drawable area of
// a container. It does not depend on pan or zoom.
type Geometry struct {
	PixelWidth  float64 `json:"pixelWidth"`
	PixelHeight float64 `json:"pixelHeight"`
	ColumnWidth float64 `json:"columnWidth"` // nominal cell width in pixels
	RowHeight   float64 `json:"rowHeight"`   // nominal cell height in pixels
	PaddingLeft float64 `json:"paddingLeft"` // room reserved for the Y axis
	PaddingTop  float64 `json:"paddingTop"`  // room reserved for the X axis
	Columns     int     `json:"columns"`
	Rows        int     `json:"rows"`
}

// Compute builds the geometry for a container of the given pixel size.
// A container smaller than one cell, or a non-positive cell size, yields
// zero columns/rows rather than an error.
func Compute(pixelWidth, pixelHeight, columnWidth, rowHeight, paddingLeft, paddingTop float64) Geometry {
	return Geometry{
		PixelWidth:  pixelWidth,
		PixelHeight: pixelHeight,
		ColumnWidth: columnWidth,
		RowHeight:   rowHeight,
		PaddingLeft: paddingLeft,
		PaddingTop:  paddingTop,
		Columns:     fit(pixelWidth-paddingLeft, columnWidth),
		Rows:        fit(pixelHeight-paddingTop, rowHeight),
	}
}

func fit(available, cell float64) int {
	if !(cell > 0) || !(available > 0) || math.IsInf(available, 0) || math.IsInf(cell, 0) {
		return 0
	}
	return int(math.Floor(available / cell))
}

// EffectiveWidth is the width of the drawable grid, which may be smaller
// than the container by the remainder of the division.
func (g Geometry) EffectiveWidth() float64 {
	return float64(g.Columns) * g.ColumnWidth
}

// EffectiveHeight is the height of the drawable grid.
func (g Geometry) EffectiveHeight() float64 {
	return float64(g.Rows) * g.RowHeight
}

// Empty reports whether no cell fits.
func (g Geometry) Empty() bool {
	return g.Columns == 0 || g.Rows == 0
}

// Contains reports whether the data-pixel point lies inside the drawable grid.
func (g Geometry) Contains(px, py float64) bool {
	return px >= 0 && px < g.EffectiveWidth() && py >= 0 && py < g.EffectiveHeight()
}
