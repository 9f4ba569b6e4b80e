package projector

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Kind is the shape of a primitive.
type Kind string

const (
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindCircle  Kind = "circle"
	KindLine    Kind = "line"
	KindText    Kind = "text"
)

// Layer groups primitives by role. Project emits layers in drawing order.
type Layer string

const (
	LayerTiles     Layer = "tiles"
	LayerGrid      Layer = "grid"
	LayerOverlay   Layer = "overlay"
	LayerSelection Layer = "selection"
	LayerBubbles   Layer = "bubbles"
	LayerBadges    Layer = "badges"
	LayerXAxis     Layer = "x-axis"
	LayerYAxis     Layer = "y-axis"
	LayerCursor    Layer = "cursor"
)

// Color is an HSL colour: hue in degrees, saturation and lightness in [0,1].
type Color struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
	A float64 `json:"a"`
}

// HSL returns an opaque colour.
func HSL(h, s, l float64) Color {
	return Color{H: h, S: s, L: l, A: 1}
}

// String formats the colour as CSS.
func (c Color) String() string {
	if c.A >= 1 {
		return fmt.Sprintf("hsl(%g,%.4g%%,%.4g%%)", c.H, c.S*100, c.L*100)
	}
	return fmt.Sprintf("hsla(%g,%.4g%%,%.4g%%,%g)", c.H, c.S*100, c.L*100, c.A)
}

// Lightness maps a value in [0,1] to the lightness used by tiles and bubbles:
// 0 is white, 1 is fully saturated. The percentage is rounded to an integer.
func Lightness(v float64) float64 {
	v = math.Min(1, math.Max(0, v))
	return math.Round(100-100*v) / 100
}

// Primitive is one drawable shape in container pixel coordinates.
//
//	rect     X, Y, Width, Height
//	ellipse  X, Y centre; RX, RY
//	circle   X, Y centre; RX radius
//	line     X, Y to X2, Y2
//	text     Text at X, Y aligned by AnchorX, AnchorY in [0,1]
type Primitive struct {
	Kind    Kind    `json:"kind"`
	Layer   Layer   `json:"layer"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	RX      float64 `json:"rx,omitempty"`
	RY      float64 `json:"ry,omitempty"`
	X2      float64 `json:"x2,omitempty"`
	Y2      float64 `json:"y2,omitempty"`
	Text    string  `json:"text,omitempty"`
	AnchorX float64 `json:"anchorX,omitempty"`
	AnchorY float64 `json:"anchorY,omitempty"`
	Fill    *Color  `json:"fill,omitempty"`
	Stroke  *Color  `json:"stroke,omitempty"`
}

// Bounds returns the axis-aligned box covered by the primitive. Text has a
// zero-size box at its anchor.
func (p Primitive) Bounds() r2.Rect {
	switch p.Kind {
	case KindRect:
		return rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
	case KindEllipse:
		return rect(p.X-p.RX, p.Y-p.RY, p.X+p.RX, p.Y+p.RY)
	case KindCircle:
		return rect(p.X-p.RX, p.Y-p.RX, p.X+p.RX, p.Y+p.RX)
	case KindLine:
		return r2.RectFromPoints(r2.Point{X: p.X, Y: p.Y}, r2.Point{X: p.X2, Y: p.Y2})
	default:
		return r2.RectFromPoints(r2.Point{X: p.X, Y: p.Y})
	}
}

func rect(x0, y0, x1, y1 float64) r2.Rect {
	return r2.Rect{X: r1.Interval{Lo: x0, Hi: x1}, Y: r1.Interval{Lo: y0, Hi: y1}}
}

func paint(c Color) *Color { return &c }
