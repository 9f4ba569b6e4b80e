// Package viewport maps between data-pixel space and screen space under an
// independent pan and zoom per axis.
//
// A data-pixel coordinate d is drawn at screen coordinate
//
//	screen = origin + (1-scale)*center + scale*d
//
// where origin is the accumulated pan offset, center the last zoom anchor and
// scale the zoom factor of that axis.
package viewport

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Axis selects which axes a zoom applies to.
type Axis uint8

const (
	AxisX    Axis = 1 << iota // horizontal only
	AxisY                     // vertical only
	AxisBoth = AxisX | AxisY
)

// Direction of a zoom step.
type Direction int8

const (
	ZoomOut Direction = -1
	ZoomIn  Direction = 1
)

// Limits bounds the zoom factor and sets the per-step multiplier.
type Limits struct {
	Step float64 `json:"step" yaml:"step"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// DefaultLimits returns a 1.125 step clamped to [1, 10].
func DefaultLimits() Limits {
	return Limits{Step: 1.125, Min: 1, Max: 10}
}

// sanitize replaces unusable values with defaults. Min is never below 1 so
// the data is never drawn smaller than its native size.
func (l Limits) sanitize() Limits {
	def := DefaultLimits()
	if !(l.Step > 1) {
		l.Step = def.Step
	}
	if !(l.Min >= 1) {
		l.Min = def.Min
	}
	if !(l.Max >= l.Min) {
		l.Max = math.Max(def.Max, l.Min)
	}
	return l
}

// Transform is the pan/zoom state of a view. The zero value is not valid;
// use Identity.
type Transform struct {
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	ScaleX  float64 `json:"scaleX"`
	ScaleY  float64 `json:"scaleY"`
}

// Identity returns the reset transform {0,0,0,0,1,1}.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// IsIdentity reports whether t equals the reset transform.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// ToScreen converts a data-pixel point to a screen point.
func (t Transform) ToScreen(p r2.Point) r2.Point {
	return r2.Point{
		X: toScreen(p.X, t.OriginX, t.CenterX, t.ScaleX),
		Y: toScreen(p.Y, t.OriginY, t.CenterY, t.ScaleY),
	}
}

// ToData converts a screen point to a data-pixel point. It is the exact
// inverse of ToScreen.
func (t Transform) ToData(p r2.Point) r2.Point {
	return r2.Point{
		X: toData(p.X, t.OriginX, t.CenterX, t.ScaleX),
		Y: toData(p.Y, t.OriginY, t.CenterY, t.ScaleY),
	}
}

func toScreen(d, origin, center, scale float64) float64 {
	return origin + (1-scale)*center + scale*d
}

func toData(s, origin, center, scale float64) float64 {
	return (s - origin - (1-scale)*center) / scale
}

// VisibleBounds returns the screen extent covered by the data area of the
// given size: min = origin + (1-scale)*center, max = min + size*scale.
// Cursor positions are clamped to it.
func (t Transform) VisibleBounds(width, height float64) r2.Rect {
	minX := t.OriginX + (1-t.ScaleX)*t.CenterX
	minY := t.OriginY + (1-t.ScaleY)*t.CenterY
	return r2.Rect{
		X: r1.Interval{Lo: minX, Hi: minX + width*t.ScaleX},
		Y: r1.Interval{Lo: minY, Hi: minY + height*t.ScaleY},
	}
}

// DataWindow returns the data-pixel rectangle that lands on the screen
// rectangle [0,width]x[0,height].
func (t Transform) DataWindow(width, height float64) r2.Rect {
	return r2.RectFromPoints(
		t.ToData(r2.Point{X: 0, Y: 0}),
		t.ToData(r2.Point{X: width, Y: height}),
	)
}

// CellSize returns the level-of-detail cell size: the nominal size divided by
// the integer part of the zoom factor.
func (t Transform) CellSize(columnWidth, rowHeight float64) (float64, float64) {
	return columnWidth / math.Max(1, math.Floor(t.ScaleX)),
		rowHeight / math.Max(1, math.Floor(t.ScaleY))
}

// Translated returns a copy of t panned by (dx, dy). Used for live previews
// that must not be committed yet.
func (t Transform) Translated(dx, dy float64) Transform {
	t.OriginX += dx
	t.OriginY += dy
	return t
}

// Pan adds (dx, dy) to the origin. Center and scale are untouched.
func (t *Transform) Pan(dx, dy float64) {
	t.OriginX += dx
	t.OriginY += dy
}

// Reset returns t to the identity transform.
func (t *Transform) Reset() {
	*t = Identity()
}

// ZoomAt scales the selected axes by one step around the screen anchor. The
// data point under the anchor keeps its screen position. It reports whether
// anything changed; a request beyond the limits is a no-op.
func (t *Transform) ZoomAt(axis Axis, anchor r2.Point, dir Direction, lim Limits) bool {
	lim = lim.sanitize()
	changed := false
	if axis&AxisX != 0 {
		changed = zoomAxis(&t.OriginX, &t.CenterX, &t.ScaleX, anchor.X, dir, lim) || changed
	}
	if axis&AxisY != 0 {
		changed = zoomAxis(&t.OriginY, &t.CenterY, &t.ScaleY, anchor.Y, dir, lim) || changed
	}
	return changed
}

func zoomAxis(origin, center, scale *float64, anchor float64, dir Direction, lim Limits) bool {
	next := *scale
	switch dir {
	case ZoomIn:
		next *= lim.Step
	case ZoomOut:
		next /= lim.Step
	default:
		return false
	}
	next = math.Min(lim.Max, math.Max(lim.Min, next))
	if next == *scale {
		return false
	}

	d := toData(anchor, *origin, *center, *scale)
	c := anchor - *origin
	*origin = anchor - (1-next)*c - next*d
	*center = c
	*scale = next
	return true
}

// FrameRect zooms so that the data-pixel rectangle fills a viewport of the
// given size, each axis independently, and centres it. The scale is clamped
// to the limits. An empty or degenerate rectangle leaves t untouched.
func (t *Transform) FrameRect(rect r2.Rect, width, height float64, lim Limits) bool {
	if rect.IsEmpty() || rect.X.Length() <= 0 || rect.Y.Length() <= 0 || width <= 0 || height <= 0 {
		return false
	}
	lim = lim.sanitize()
	frameAxis(&t.OriginX, &t.CenterX, &t.ScaleX, rect.X, width, lim)
	frameAxis(&t.OriginY, &t.CenterY, &t.ScaleY, rect.Y, height, lim)
	return true
}

func frameAxis(origin, center, scale *float64, span r1.Interval, size float64, lim Limits) {
	s := math.Min(lim.Max, math.Max(lim.Min, size/span.Length()))
	c := span.Center()
	*scale = s
	*center = c
	*origin = size/2 - c
}
