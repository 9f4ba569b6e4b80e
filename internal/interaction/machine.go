// Package interaction turns pointer, wheel and key events into pan, zoom and
// selection updates of a viewport transform.
//
// The machine is a single tagged state (Mode) with explicit transitions:
//
//	Idle           --down (pan)-->      Panning
//	Idle           --down (select)-->   Selecting
//	Panning        --move-->            Panning         live preview offset
//	Panning        --up-->              Idle            origin += offset
//	Selecting      --move-->            Selecting       far edge snaps to cells
//	Selecting      --up-->              SelectionFinal  or Idle if empty
//	any            --Escape/dblclick--> Idle            transform reset
//
// Wheel events zoom regardless of the mode. A Machine is not safe for
// concurrent use; callers serialize access.
package interaction

import (
	"math"

	"github.com/golang/geo/r2"

	"github.com/jengzang/heatmap-viewer-go/internal/grid"
	"github.com/jengzang/heatmap-viewer-go/internal/stats"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
)

// Mode is the gesture state of the machine.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModePanning
	ModeSelecting
	ModeSelectionFinal
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModePanning:
		return "panning"
	case ModeSelecting:
		return "selecting"
	case ModeSelectionFinal:
		return "selection-final"
	default:
		return "unknown"
	}
}

// MarshalText lets modes appear by name in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Config controls gesture handling.
type Config struct {
	Limits          viewport.Limits
	Trigger         Trigger
	ZoomToSelection bool
	LevelOfDetail   bool
}

// DefaultConfig selects with shift, zooms 1.125 per wheel step within [1,10]
// and shrinks cells while zoomed.
func DefaultConfig() Config {
	return Config{
		Limits:        viewport.DefaultLimits(),
		Trigger:       TriggerShift,
		LevelOfDetail: true,
	}
}

// Result describes what an event changed.
type Result struct {
	// Changed is set when anything drawable changed.
	Changed bool
	// ViewChanged is set when the committed transform changed.
	ViewChanged bool
	// Finalized is set when a selection gesture ended with a usable rectangle.
	Finalized bool
	// PreventDefault asks the host not to apply its default action (page
	// scroll for wheel events, context menu for the secondary button).
	PreventDefault bool
}

// Machine owns the transform, the selection and the cursor of one view.
type Machine struct {
	cfg  Config
	geom grid.Geometry

	mode      Mode
	transform viewport.Transform
	target    Target
	anchor    r2.Point // pan start, grid-local
	offset    r2.Point // uncommitted pan
	selection *Selection
	pointer   PointerState
}

// New returns an idle machine with the identity transform.
func New(cfg Config, g grid.Geometry) *Machine {
	if cfg.Trigger == "" {
		cfg.Trigger = TriggerShift
	}
	return &Machine{cfg: cfg, geom: g, transform: viewport.Identity()}
}

// SetGeometry replaces the grid geometry after a resize.
func (m *Machine) SetGeometry(g grid.Geometry) {
	m.geom = g
}

// Geometry returns the current grid geometry.
func (m *Machine) Geometry() grid.Geometry {
	return m.geom
}

// Config returns the machine configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Mode returns the current gesture state.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Transform returns the committed transform.
func (m *Machine) Transform() viewport.Transform {
	return m.transform
}

// Preview returns the committed transform with the live pan offset applied.
func (m *Machine) Preview() viewport.Transform {
	return m.transform.Translated(m.offset.X, m.offset.Y)
}

// Selection returns the current selection, if any.
func (m *Machine) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

// Pointer returns the last cursor state.
func (m *Machine) Pointer() PointerState {
	return m.pointer
}

// CellSize returns the cell size selections snap to.
func (m *Machine) CellSize() (float64, float64) {
	if m.cfg.LevelOfDetail {
		return m.transform.CellSize(m.geom.ColumnWidth, m.geom.RowHeight)
	}
	return m.geom.ColumnWidth, m.geom.RowHeight
}

// Reset drops any gesture and selection and restores the identity transform.
func (m *Machine) Reset() Result {
	changed := !m.transform.IsIdentity() || m.mode != ModeIdle || m.selection != nil || m.offset != (r2.Point{})
	viewChanged := !m.transform.IsIdentity()
	m.transform.Reset()
	m.idle()
	return Result{Changed: changed, ViewChanged: viewChanged}
}

func (m *Machine) idle() {
	m.mode = ModeIdle
	m.offset = r2.Point{}
	m.selection = nil
	m.target = ""
}

// Handle applies one event.
func (m *Machine) Handle(e Event) Result {
	if e.Validate() != nil {
		return Result{}
	}
	switch e.Kind {
	case KindKeyDown:
		if e.Key == KeyEscape {
			return m.Reset()
		}
		return Result{}
	case KindDoubleClick:
		return m.doubleClick(e)
	}

	if !e.finite() {
		// Malformed coordinates end any gesture without touching the transform.
		changed := m.mode == ModePanning || m.mode == ModeSelecting
		if changed {
			m.idle()
		}
		return Result{Changed: changed, PreventDefault: e.Kind == KindWheel}
	}

	switch e.Kind {
	case KindWheel:
		return m.wheel(e)
	case KindPointerDown:
		return m.pointerDown(e)
	case KindPointerMove:
		return m.pointerMove(e)
	case KindPointerUp:
		return m.pointerUp(e)
	case KindPointerCancel:
		return m.cancel()
	}
	return Result{}
}

// local converts container coordinates to grid-local screen coordinates.
func (m *Machine) local(e Event) r2.Point {
	return r2.Point{X: e.X - m.geom.PaddingLeft, Y: e.Y - m.geom.PaddingTop}
}

func axisOf(t Target) viewport.Axis {
	switch t {
	case TargetXAxis:
		return viewport.AxisX
	case TargetYAxis:
		return viewport.AxisY
	default:
		return viewport.AxisBoth
	}
}

func (m *Machine) doubleClick(e Event) Result {
	switch e.target() {
	case TargetXAxis:
		return m.resetAxis(viewport.AxisX)
	case TargetYAxis:
		return m.resetAxis(viewport.AxisY)
	default:
		return m.Reset()
	}
}

func (m *Machine) resetAxis(axis viewport.Axis) Result {
	before := m.transform
	id := viewport.Identity()
	if axis&viewport.AxisX != 0 {
		m.transform.OriginX, m.transform.CenterX, m.transform.ScaleX = id.OriginX, id.CenterX, id.ScaleX
	}
	if axis&viewport.AxisY != 0 {
		m.transform.OriginY, m.transform.CenterY, m.transform.ScaleY = id.OriginY, id.CenterY, id.ScaleY
	}
	changed := m.transform != before
	m.mode, m.offset, m.target = ModeIdle, r2.Point{}, ""
	return Result{Changed: changed, ViewChanged: changed}
}

func (m *Machine) wheel(e Event) Result {
	res := Result{PreventDefault: true}
	var dir viewport.Direction
	switch {
	case e.DeltaY < 0:
		dir = viewport.ZoomIn
	case e.DeltaY > 0:
		dir = viewport.ZoomOut
	default:
		return res
	}
	p := m.local(e)
	if m.transform.ZoomAt(axisOf(e.target()), p, dir, m.cfg.Limits) {
		res.Changed, res.ViewChanged = true, true
	}
	m.updatePointer(p)
	return res
}

func (m *Machine) pointerDown(e Event) Result {
	// A new gesture discards whatever the previous one left behind.
	m.idle()
	p := m.local(e)
	target := e.target()

	if target == TargetGrid && m.cfg.Trigger.selects(e) {
		d := m.transform.ToData(p)
		cw, ch := m.CellSize()
		m.selection = &Selection{
			X:       align(d.X, cw),
			Y:       align(d.Y, ch),
			Width:   cw,
			Height:  ch,
			ClientX: e.X,
			ClientY: e.Y,
			Editing: true,
		}
		m.mode = ModeSelecting
	} else {
		m.mode = ModePanning
		m.target = target
		m.anchor = p
	}
	m.updatePointer(p)
	return Result{Changed: true, PreventDefault: e.Button == ButtonSecondary}
}

func (m *Machine) pointerMove(e Event) Result {
	p := m.local(e)
	res := Result{}
	switch m.mode {
	case ModePanning:
		offset := m.panDelta(p)
		if offset != m.offset {
			m.offset = offset
			res.Changed = true
		}
	case ModeSelecting:
		res.Changed = m.grow(e, p)
	}
	m.updatePointer(p)
	return res
}

func (m *Machine) pointerUp(e Event) Result {
	p := m.local(e)
	switch m.mode {
	case ModePanning:
		delta := m.panDelta(p)
		m.transform.Pan(delta.X, delta.Y)
		m.idle()
		m.updatePointer(p)
		moved := delta != (r2.Point{})
		return Result{Changed: true, ViewChanged: moved}
	case ModeSelecting:
		m.grow(e, p)
		m.updatePointer(p)
		return m.finalize()
	}
	m.updatePointer(p)
	return Result{}
}

func (m *Machine) cancel() Result {
	switch m.mode {
	case ModePanning, ModeSelecting:
		m.idle()
		return Result{Changed: true}
	}
	return Result{}
}

// panDelta is the drag distance from the anchor, limited to the axis the
// gesture started on.
func (m *Machine) panDelta(p r2.Point) r2.Point {
	d := p.Sub(m.anchor)
	switch m.target {
	case TargetXAxis:
		d.Y = 0
	case TargetYAxis:
		d.X = 0
	}
	return d
}

// grow extends the selection so its far edge lands on the first cell
// boundary at or beyond the cursor. The rectangle never shrinks below one
// cell.
func (m *Machine) grow(e Event, p r2.Point) bool {
	sel := m.selection
	if sel == nil || !sel.Editing {
		return false
	}
	d := m.transform.ToData(p)
	cw, ch := m.CellSize()
	width := math.Max(cw, cw*math.Ceil(d.X/cw)-sel.X)
	height := math.Max(ch, ch*math.Ceil(d.Y/ch)-sel.Y)
	sel.ClientWidth = e.X - sel.ClientX
	sel.ClientHeight = e.Y - sel.ClientY
	if width == sel.Width && height == sel.Height {
		return false
	}
	sel.Width, sel.Height = width, height
	return true
}

func (m *Machine) finalize() Result {
	sel := m.selection
	if sel == nil || !sel.Valid() {
		m.idle()
		return Result{Changed: true}
	}
	sel.Editing = false
	m.mode = ModeSelectionFinal
	res := Result{Changed: true, Finalized: true}
	if m.cfg.ZoomToSelection && !m.geom.Empty() {
		res.ViewChanged = m.transform.FrameRect(sel.Rect(),
			m.geom.EffectiveWidth(), m.geom.EffectiveHeight(), m.cfg.Limits)
	}
	return res
}

// updatePointer clamps the grid-local cursor to the visible bounds and
// records its data-pixel and normalized position.
func (m *Machine) updatePointer(p r2.Point) {
	t := m.Preview()
	vb := t.VisibleBounds(m.geom.EffectiveWidth(), m.geom.EffectiveHeight())
	x := stats.Clamp(p.X, vb.X.Lo, vb.X.Hi)
	y := stats.Clamp(p.Y, vb.Y.Lo, vb.Y.Hi)
	d := t.ToData(r2.Point{X: x, Y: y})
	m.pointer = PointerState{
		X:     d.X,
		Y:     d.Y,
		NormX: stats.NormalizeValue(x, vb.X.Lo, vb.X.Length()),
		NormY: stats.NormalizeValue(y, vb.Y.Lo, vb.Y.Length()),
	}
}

func align(v, step float64) float64 {
	if !(step > 0) {
		return v
	}
	return math.Floor(v/step) * step
}
