// Package projector turns aggregated buckets and a view transform into
// drawable primitives. It is a pure function of its input.
package projector

import (
	"math"
	"strconv"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/jengzang/heatmap-viewer-go/internal/bucket"
	"github.com/jengzang/heatmap-viewer-go/internal/grid"
	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/stats"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
)

// Sizes in screen pixels.
const (
	BubbleRadius     = 5.0
	BadgeRadius      = 8.0
	LargeBadgeRadius = 12.0
	BadgeOffset      = 12.0
	LargeBadgeCount  = 99
)

const (
	tileHue    = 200
	overlayHue = 40
	bubbleHue  = 100
	saturation = 0.8
)

var (
	gridColor       = HSL(0, 0, 0.83)
	labelColor      = HSL(0, 0, 0.2)
	badgeColor      = HSL(210, 0.1, 0.25)
	badgeTextColor  = HSL(0, 0, 1)
	selectionStroke = HSL(overlayHue, saturation, 0.45)
	selectionFill   = Color{H: overlayHue, S: saturation, L: 0.5, A: 0.15}
	cursorColor     = HSL(0, 0.7, 0.5)
)

// Flags switch individual layers on and off.
type Flags struct {
	Tiles   bool `json:"tiles" yaml:"tiles"`
	Bubbles bool `json:"bubbles" yaml:"bubbles"`
	Badges  bool `json:"badges" yaml:"badges"`
	Grid    bool `json:"grid" yaml:"grid"`
	Axes    bool `json:"axes" yaml:"axes"`
	Cursor  bool `json:"cursor" yaml:"cursor"`
}

// DefaultFlags enables every layer.
func DefaultFlags() Flags {
	return Flags{Tiles: true, Bubbles: true, Badges: true, Grid: true, Axes: true, Cursor: true}
}

// Axes label tick marks with raw data values.
type Axes struct {
	X         models.Range `json:"x"`
	Y         models.Range `json:"y"`
	Precision int          `json:"precision"`
}

// DefaultAxes labels [0,1] with two decimals.
func DefaultAxes() Axes {
	return Axes{X: models.UnitRange(), Y: models.UnitRange(), Precision: 2}
}

// Input is everything one frame depends on.
type Input struct {
	Buckets   *bucket.Buckets
	Overlay   *bucket.Buckets // selection overlay, may be nil
	Geometry  grid.Geometry
	Transform viewport.Transform
	Selection *interaction.Selection
	Pointer   *interaction.PointerState
	Flags     Flags
	Axes      Axes
}

type projection struct {
	in   Input
	g    grid.Geometry
	t    viewport.Transform
	clip r2.Rect
	out  []Primitive
}

// Project returns the primitives of one frame in drawing order. Shapes in the
// grid layers are culled or clipped to the drawable grid.
func Project(in Input) []Primitive {
	g := in.Geometry
	if g.Empty() {
		return nil
	}
	p := &projection{
		in: in,
		g:  g,
		t:  in.Transform,
		clip: rect(g.PaddingLeft, g.PaddingTop,
			g.PaddingLeft+g.EffectiveWidth(), g.PaddingTop+g.EffectiveHeight()),
	}

	if in.Flags.Tiles {
		p.tiles(in.Buckets, tileHue, LayerTiles)
	}
	if in.Flags.Grid {
		p.lines()
	}
	if in.Selection != nil && in.Selection.Valid() {
		if in.Flags.Tiles {
			p.tiles(in.Overlay, overlayHue, LayerOverlay)
		}
		p.selection(*in.Selection)
	}
	if in.Flags.Bubbles {
		p.bubbles()
	}
	if in.Flags.Badges {
		p.badges()
	}
	if in.Flags.Axes {
		p.xAxis()
		p.yAxis()
	}
	if in.Flags.Cursor && in.Pointer != nil {
		p.cursor(*in.Pointer)
	}
	return p.out
}

func (p *projection) toScreen(d r2.Point) r2.Point {
	s := p.t.ToScreen(d)
	return r2.Point{X: s.X + p.g.PaddingLeft, Y: s.Y + p.g.PaddingTop}
}

func (p *projection) screenRect(r r2.Rect) r2.Rect {
	return r2.RectFromPoints(p.toScreen(r.Lo()), p.toScreen(r.Hi()))
}

func (p *projection) emit(prim Primitive) {
	p.out = append(p.out, prim)
}

func (p *projection) tiles(bs *bucket.Buckets, hue float64, layer Layer) {
	for _, b := range bs.Cells() {
		r := p.screenRect(bs.Bounds(b.Cell)).Intersection(p.clip)
		if r.IsEmpty() || r.X.Length() == 0 || r.Y.Length() == 0 {
			continue
		}
		p.emit(Primitive{
			Kind:   KindRect,
			Layer:  layer,
			X:      r.X.Lo,
			Y:      r.Y.Lo,
			Width:  r.X.Length(),
			Height: r.Y.Length(),
			Fill:   paint(HSL(hue, saturation, Lightness(b.Value()))),
		})
	}
}

func (p *projection) bubbles() {
	for _, b := range p.in.Buckets.Cells() {
		for _, s := range b.Samples {
			c := p.toScreen(bucket.Position(s, p.g))
			if !p.clip.ContainsPoint(c) {
				continue
			}
			p.emit(Primitive{
				Kind:  KindEllipse,
				Layer: LayerBubbles,
				X:     c.X,
				Y:     c.Y,
				RX:    BubbleRadius,
				RY:    BubbleRadius,
				Fill:  paint(HSL(bubbleHue, saturation, Lightness(s.Z))),
			})
		}
	}
}

func (p *projection) badges() {
	bs := p.in.Buckets
	for _, b := range bs.Cells() {
		n := b.Count()
		if n <= 1 || b.Value() == 0 {
			continue
		}
		corner := p.toScreen(bs.Bounds(b.Cell).Lo())
		c := r2.Point{X: corner.X + BadgeOffset, Y: corner.Y + BadgeOffset}
		if !p.clip.ContainsPoint(c) {
			continue
		}
		r := BadgeRadius
		if n > LargeBadgeCount {
			r = LargeBadgeRadius
		}
		p.emit(Primitive{Kind: KindCircle, Layer: LayerBadges, X: c.X, Y: c.Y, RX: r, Fill: paint(badgeColor)})
		p.emit(Primitive{
			Kind:    KindText,
			Layer:   LayerBadges,
			X:       c.X,
			Y:       c.Y,
			Text:    strconv.Itoa(n),
			AnchorX: 0.5,
			AnchorY: 0.5,
			Fill:    paint(badgeTextColor),
		})
	}
}

// cellSize is the size of the cells the main buckets were built with.
func (p *projection) cellSize() (float64, float64) {
	if bs := p.in.Buckets; bs != nil && bs.CellWidth > 0 && bs.CellHeight > 0 {
		return bs.CellWidth, bs.CellHeight
	}
	return p.g.ColumnWidth, p.g.RowHeight
}

// boundaries returns the cell boundaries of an aligned interval.
func boundaries(i r1.Interval, step float64) []float64 {
	if i.IsEmpty() || !(step > 0) {
		return nil
	}
	n := int(math.Round(i.Length() / step))
	out := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		out = append(out, math.Min(i.Lo+float64(k)*step, i.Hi))
	}
	return out
}

// lines draws meridians and parallels at the cell boundaries of the visible
// part of the grid.
func (p *projection) lines() {
	cw, ch := p.cellSize()
	w := bucket.VisibleWindow(p.g, p.t, cw, ch)
	if w.IsEmpty() {
		return
	}
	span := p.screenRect(w).Intersection(p.clip)
	if span.IsEmpty() {
		return
	}
	for _, x := range boundaries(w.X, cw) {
		sx := p.toScreen(r2.Point{X: x}).X
		if !p.clip.X.Contains(sx) {
			continue
		}
		p.emit(Primitive{Kind: KindLine, Layer: LayerGrid, X: sx, Y: span.Y.Lo, X2: sx, Y2: span.Y.Hi, Stroke: paint(gridColor)})
	}
	for _, y := range boundaries(w.Y, ch) {
		sy := p.toScreen(r2.Point{Y: y}).Y
		if !p.clip.Y.Contains(sy) {
			continue
		}
		p.emit(Primitive{Kind: KindLine, Layer: LayerGrid, X: span.X.Lo, Y: sy, X2: span.X.Hi, Y2: sy, Stroke: paint(gridColor)})
	}
}

func (p *projection) selection(sel interaction.Selection) {
	r := p.screenRect(sel.Rect()).Intersection(p.clip)
	if r.IsEmpty() {
		return
	}
	p.emit(Primitive{
		Kind:   KindRect,
		Layer:  LayerSelection,
		X:      r.X.Lo,
		Y:      r.Y.Lo,
		Width:  r.X.Length(),
		Height: r.Y.Length(),
		Fill:   paint(selectionFill),
		Stroke: paint(selectionStroke),
	})
}

func (p *projection) label(v float64) string {
	return strconv.FormatFloat(v, 'f', p.in.Axes.Precision, 64)
}

// ticks returns the interior cell boundaries of the visible window along one
// axis; the grid edges carry no label.
func (p *projection) ticks(w r1.Interval, step, extent float64) []float64 {
	var out []float64
	for _, v := range boundaries(w, step) {
		if v > 0 && v < extent {
			out = append(out, v)
		}
	}
	return out
}

func (p *projection) xAxis() {
	top := p.g.PaddingTop
	p.emit(Primitive{Kind: KindLine, Layer: LayerXAxis, X: p.clip.X.Lo, Y: top, X2: p.clip.X.Hi, Y2: top, Stroke: paint(gridColor)})

	cw, ch := p.cellSize()
	w := bucket.VisibleWindow(p.g, p.t, cw, ch)
	if w.IsEmpty() {
		return
	}
	effW := p.g.EffectiveWidth()
	for _, x := range p.ticks(w.X, cw, effW) {
		sx := p.toScreen(r2.Point{X: x}).X
		if !p.clip.X.Contains(sx) {
			continue
		}
		p.emit(Primitive{Kind: KindLine, Layer: LayerXAxis, X: sx, Y: top * 0.75, X2: sx, Y2: top, Stroke: paint(gridColor)})
		p.emit(Primitive{
			Kind:    KindText,
			Layer:   LayerXAxis,
			X:       sx,
			Y:       top * 0.5,
			Text:    p.label(p.in.Axes.X.At(x / effW)),
			AnchorX: 0.5,
			AnchorY: 0.5,
			Fill:    paint(labelColor),
		})
	}
}

func (p *projection) yAxis() {
	left := p.g.PaddingLeft
	p.emit(Primitive{Kind: KindLine, Layer: LayerYAxis, X: left, Y: p.clip.Y.Lo, X2: left, Y2: p.clip.Y.Hi, Stroke: paint(gridColor)})

	cw, ch := p.cellSize()
	w := bucket.VisibleWindow(p.g, p.t, cw, ch)
	if w.IsEmpty() {
		return
	}
	effH := p.g.EffectiveHeight()
	for _, y := range p.ticks(w.Y, ch, effH) {
		sy := p.toScreen(r2.Point{Y: y}).Y
		if !p.clip.Y.Contains(sy) {
			continue
		}
		p.emit(Primitive{Kind: KindLine, Layer: LayerYAxis, X: left * 0.75, Y: sy, X2: left, Y2: sy, Stroke: paint(gridColor)})
		p.emit(Primitive{
			Kind:    KindText,
			Layer:   LayerYAxis,
			X:       left * 0.4,
			Y:       sy,
			Text:    p.label(p.in.Axes.Y.At(y / effH)),
			AnchorX: 0.5,
			AnchorY: 0.5,
			Fill:    paint(labelColor),
		})
	}
}

// cursor draws a crosshair through the pointer and its value on each axis.
func (p *projection) cursor(ptr interaction.PointerState) {
	c := p.toScreen(r2.Point{X: ptr.X, Y: ptr.Y})
	if !p.clip.ContainsPoint(c) {
		return
	}
	p.emit(Primitive{Kind: KindLine, Layer: LayerCursor, X: c.X, Y: p.clip.Y.Lo, X2: c.X, Y2: p.clip.Y.Hi, Stroke: paint(cursorColor)})
	p.emit(Primitive{Kind: KindLine, Layer: LayerCursor, X: p.clip.X.Lo, Y: c.Y, X2: p.clip.X.Hi, Y2: c.Y, Stroke: paint(cursorColor)})

	fx := stats.NormalizeValue(ptr.X, 0, p.g.EffectiveWidth())
	fy := stats.NormalizeValue(ptr.Y, 0, p.g.EffectiveHeight())
	p.emit(Primitive{
		Kind: KindText, Layer: LayerCursor, X: c.X, Y: p.g.PaddingTop * 0.2,
		Text: p.label(p.in.Axes.X.At(fx)), AnchorX: 0.5, AnchorY: 0.5, Fill: paint(cursorColor),
	})
	p.emit(Primitive{
		Kind: KindText, Layer: LayerCursor, X: p.g.PaddingLeft * 0.4, Y: c.Y,
		Text: p.label(p.in.Axes.Y.At(fy)), AnchorX: 0.5, AnchorY: 1, Fill: paint(cursorColor),
	})
}
