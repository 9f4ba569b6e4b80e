// Package bucket groups samples into rectangular grid cells.
//
// Binning happens in data-pixel space: a sample at (x, y) sits at pixel
// (x*effectiveWidth, y*effectiveHeight) of the unzoomed grid. Buckets are
// rebuilt from scratch on every call; the cost is linear in the number of
// samples and memory is proportional to the number of occupied cells.
package bucket

import (
	"math"
	"sort"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/jengzang/heatmap-viewer-go/internal/grid"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/stats"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
)

// Cell identifies a bucket by integer column and row.
type Cell struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Bucket holds the samples that fell into one cell, in input order.
type Bucket struct {
	Cell    Cell
	Samples []models.Sample
	value   float64
}

// Value is the mean z of the bucket's samples.
func (b *Bucket) Value() float64 {
	if b == nil {
		return 0
	}
	return b.value
}

// Count is the number of samples in the bucket.
func (b *Bucket) Count() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// Buckets is a sparse set of occupied cells. Cell (0,0) starts at
// (OriginX, OriginY) in data-pixel space and cells are CellWidth x CellHeight.
type Buckets struct {
	CellWidth  float64
	CellHeight float64
	OriginX    float64
	OriginY    float64
	cells      map[Cell]*Bucket
	samples    int
}

func newBuckets(cellWidth, cellHeight, originX, originY float64) *Buckets {
	return &Buckets{
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
		OriginX:    originX,
		OriginY:    originY,
		cells:      make(map[Cell]*Bucket),
	}
}

func (bs *Buckets) add(c Cell, s models.Sample) {
	b, ok := bs.cells[c]
	if !ok {
		b = &Bucket{Cell: c}
		bs.cells[c] = b
	}
	b.Samples = append(b.Samples, s)
	bs.samples++
}

// finish computes the per-bucket aggregate once all samples are placed.
func (bs *Buckets) finish() *Buckets {
	for _, b := range bs.cells {
		zs := make([]float64, len(b.Samples))
		for i, s := range b.Samples {
			zs[i] = s.Z
		}
		b.value = stats.Mean(zs)
	}
	return bs
}

// Get returns the bucket at c, or nil when the cell is empty.
func (bs *Buckets) Get(c Cell) *Bucket {
	if bs == nil {
		return nil
	}
	return bs.cells[c]
}

// Value returns the aggregate of the cell at (column, row); empty cells are 0.
func (bs *Buckets) Value(column, row int) float64 {
	return bs.Get(Cell{Column: column, Row: row}).Value()
}

// Len returns the number of occupied cells.
func (bs *Buckets) Len() int {
	if bs == nil {
		return 0
	}
	return len(bs.cells)
}

// SampleCount returns the number of samples placed in any bucket.
func (bs *Buckets) SampleCount() int {
	if bs == nil {
		return 0
	}
	return bs.samples
}

// MaxCount returns the size of the fullest bucket.
func (bs *Buckets) MaxCount() int {
	max := 0
	if bs == nil {
		return max
	}
	for _, b := range bs.cells {
		if len(b.Samples) > max {
			max = len(b.Samples)
		}
	}
	return max
}

// Cells returns the occupied buckets ordered by column, then row.
func (bs *Buckets) Cells() []*Bucket {
	if bs == nil {
		return nil
	}
	out := make([]*Bucket, 0, len(bs.cells))
	for _, b := range bs.cells {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cell.Column != out[j].Cell.Column {
			return out[i].Cell.Column < out[j].Cell.Column
		}
		return out[i].Cell.Row < out[j].Cell.Row
	})
	return out
}

// Bounds returns the data-pixel rectangle covered by cell c.
func (bs *Buckets) Bounds(c Cell) r2.Rect {
	x := bs.OriginX + float64(c.Column)*bs.CellWidth
	y := bs.OriginY + float64(c.Row)*bs.CellHeight
	return r2.Rect{
		X: r1.Interval{Lo: x, Hi: x + bs.CellWidth},
		Y: r1.Interval{Lo: y, Hi: y + bs.CellHeight},
	}
}

// Position returns the data-pixel position of a sample in geometry g.
func Position(s models.Sample, g grid.Geometry) r2.Point {
	return r2.Point{X: s.X * g.EffectiveWidth(), Y: s.Y * g.EffectiveHeight()}
}

// within reports whether v lies in [lo,hi). A value exactly on the far edge
// of the grid also counts when hi reaches that edge, so samples at x or y = 1
// fall into the last cell instead of off the grid.
func within(v, lo, hi, edge float64) bool {
	return v >= lo && (v < hi || (v == edge && hi == edge))
}

// index returns the cell holding v for cells of size step, capped at the
// last cell before edge.
func index(v, step, edge float64) int {
	i := int(math.Floor(v / step))
	if last := int(math.Ceil(edge/step)) - 1; i > last {
		return last
	}
	return i
}

// InRegion reports whether data-pixel point p lies in region, half-open on
// the far sides except along the far edges of the grid.
func InRegion(p r2.Point, region r2.Rect, g grid.Geometry) bool {
	return within(p.X, region.X.Lo, region.X.Hi, g.EffectiveWidth()) &&
		within(p.Y, region.Y.Lo, region.Y.Hi, g.EffectiveHeight())
}

// Aggregate bins every sample over the full drawable grid using the nominal
// cell size. Samples outside [0,effectiveWidth] x [0,effectiveHeight], or
// with non-finite coordinates, are left out; those on the far edges go to
// the last column or row.
func Aggregate(samples []models.Sample, g grid.Geometry) *Buckets {
	bs := newBuckets(g.ColumnWidth, g.RowHeight, 0, 0)
	if g.Empty() {
		return bs
	}
	effW, effH := g.EffectiveWidth(), g.EffectiveHeight()
	for _, s := range samples {
		if !s.Finite() {
			continue
		}
		p := Position(s, g)
		if !within(p.X, 0, effW, effW) || !within(p.Y, 0, effH, effH) {
			continue
		}
		bs.add(Cell{
			Column: index(p.X, g.ColumnWidth, effW),
			Row:    index(p.Y, g.RowHeight, effH),
		}, s)
	}
	return bs.finish()
}

// AggregateRegion bins the samples inside a data-pixel region, subdividing
// the region into the same number of columns and rows as the full grid. It
// backs the zoomed selection overlay. A region with no area yields no buckets.
func AggregateRegion(samples []models.Sample, g grid.Geometry, region r2.Rect) *Buckets {
	width, height := region.X.Length(), region.Y.Length()
	if g.Empty() || region.IsEmpty() || !(width > 0) || !(height > 0) {
		return newBuckets(0, 0, region.X.Lo, region.Y.Lo)
	}

	cw := g.ColumnWidth * width / g.EffectiveWidth()
	ch := g.RowHeight * height / g.EffectiveHeight()
	bs := newBuckets(cw, ch, region.X.Lo, region.Y.Lo)
	for _, s := range samples {
		if !s.Finite() || !s.InUnitSquare() {
			continue
		}
		p := Position(s, g)
		if !InRegion(p, region, g) {
			continue
		}
		lx, ly := p.X-region.X.Lo, p.Y-region.Y.Lo
		bs.add(Cell{
			Column: min(int(math.Floor(lx/cw)), g.Columns-1),
			Row:    min(int(math.Floor(ly/ch)), g.Rows-1),
		}, s)
	}
	return bs.finish()
}

// AggregateVisible bins only the samples inside the part of the grid that is
// on screen under t, widened to whole cells. With lod set, the cell size
// shrinks as the zoom grows (nominal size divided by floor(scale)).
func AggregateVisible(samples []models.Sample, g grid.Geometry, t viewport.Transform, lod bool) *Buckets {
	cw, ch := g.ColumnWidth, g.RowHeight
	if lod {
		cw, ch = t.CellSize(g.ColumnWidth, g.RowHeight)
	}
	bs := newBuckets(cw, ch, 0, 0)
	if g.Empty() {
		return bs
	}

	window := VisibleWindow(g, t, cw, ch)
	if window.IsEmpty() {
		return bs
	}
	effW, effH := g.EffectiveWidth(), g.EffectiveHeight()
	for _, s := range samples {
		if !s.Finite() {
			continue
		}
		p := Position(s, g)
		if !InRegion(p, window, g) {
			continue
		}
		bs.add(Cell{
			Column: index(p.X, cw, effW),
			Row:    index(p.Y, ch, effH),
		}, s)
	}
	return bs.finish()
}

// VisibleWindow returns the on-screen part of the drawable grid in data-pixel
// space, expanded outward to cell boundaries of the given size and clipped
// to the grid. The result is empty when nothing of the grid is visible.
func VisibleWindow(g grid.Geometry, t viewport.Transform, cellWidth, cellHeight float64) r2.Rect {
	effW, effH := g.EffectiveWidth(), g.EffectiveHeight()
	area := r2.Rect{X: r1.Interval{Lo: 0, Hi: effW}, Y: r1.Interval{Lo: 0, Hi: effH}}
	w := t.DataWindow(effW, effH).Intersection(area)
	if w.IsEmpty() || w.X.Length() == 0 || w.Y.Length() == 0 {
		return r2.EmptyRect()
	}
	return r2.Rect{
		X: alignInterval(w.X, cellWidth, effW),
		Y: alignInterval(w.Y, cellHeight, effH),
	}
}

func alignInterval(i r1.Interval, step, limit float64) r1.Interval {
	if step <= 0 {
		return i
	}
	lo := math.Floor(i.Lo/step) * step
	hi := math.Min(limit, math.Ceil(i.Hi/step)*step)
	return r1.Interval{Lo: lo, Hi: hi}
}
