// Package viewer composes the heatmap core into one interactive view: grid
// geometry, the interaction machine, frame coalescing, aggregation and
// projection, plus change notifications for pointer and view updates.
//
// All mutation happens under the viewer's lock, which plays the role of a
// single UI thread. Listeners registered with SubscribePointer and
// SubscribeView run under that lock and must not call back into the viewer.
package viewer

import (
	"errors"
	"sync"
	"time"

	"github.com/golang/geo/r2"

	"github.com/jengzang/heatmap-viewer-go/internal/broadcast"
	"github.com/jengzang/heatmap-viewer-go/internal/bucket"
	"github.com/jengzang/heatmap-viewer-go/internal/frame"
	"github.com/jengzang/heatmap-viewer-go/internal/grid"
	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/projector"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
)

// ErrClosed is returned by operations on a closed viewer.
var ErrClosed = errors.New("viewer closed")

// Config holds the layout and behaviour of a viewer.
type Config struct {
	ColumnWidth   float64
	RowHeight     float64
	PaddingLeft   float64
	PaddingTop    float64
	Interaction   interaction.Config
	FrameInterval time.Duration
	Scheduler     frame.Scheduler // nil uses real timers
	Flags         projector.Flags
	Axes          projector.Axes
}

// DefaultConfig uses 100x25 cells with room for the axes on the left and top.
func DefaultConfig() Config {
	return Config{
		ColumnWidth:   100,
		RowHeight:     25,
		PaddingLeft:   50,
		PaddingTop:    30,
		Interaction:   interaction.DefaultConfig(),
		FrameInterval: frame.DefaultInterval,
		Flags:         projector.DefaultFlags(),
		Axes:          projector.DefaultAxes(),
	}
}

// Frame is a snapshot of everything needed to draw the view.
type Frame struct {
	Width      float64                  `json:"width"`
	Height     float64                  `json:"height"`
	Geometry   grid.Geometry            `json:"geometry"`
	Transform  viewport.Transform       `json:"transform"`
	Preview    viewport.Transform       `json:"preview"`
	Mode       interaction.Mode         `json:"mode"`
	Selection  *interaction.Selection   `json:"selection,omitempty"`
	Pointer    interaction.PointerState `json:"pointer"`
	Flags      projector.Flags          `json:"flags"`
	Buckets    int                      `json:"buckets"`
	Samples    int                      `json:"samples"`
	Primitives []projector.Primitive    `json:"primitives"`
}

// Viewer is one interactive heatmap view over a fixed sample set.
type Viewer struct {
	mu      sync.Mutex
	cfg     Config
	samples []models.Sample
	width   float64
	height  float64
	machine *interaction.Machine
	frames  *frame.Coalescer
	pointer broadcast.Hub[interaction.PointerState]
	view    broadcast.Hub[viewport.Transform]
	flags   projector.Flags
	axes    projector.Axes
	closed  bool
}

// New creates a viewer for samples in a container of width x height pixels.
// The samples are read, never modified.
func New(samples []models.Sample, width, height float64, cfg Config) *Viewer {
	v := &Viewer{
		cfg:     cfg,
		samples: samples,
		width:   width,
		height:  height,
		flags:   cfg.Flags,
		axes:    cfg.Axes,
	}
	v.machine = interaction.New(cfg.Interaction, v.geometry(width, height))
	v.frames = frame.New(cfg.FrameInterval, cfg.Scheduler, v.fire)
	return v
}

func (v *Viewer) geometry(width, height float64) grid.Geometry {
	return grid.Compute(width, height, v.cfg.ColumnWidth, v.cfg.RowHeight, v.cfg.PaddingLeft, v.cfg.PaddingTop)
}

// fire runs a coalesced pointer move when its frame comes due.
func (v *Viewer) fire() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.frames.Flush()
}

// Resize recomputes the grid for a new container size. Resizing to the
// current size is a no-op; it reports whether anything changed.
func (v *Viewer) Resize(width, height float64) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false, ErrClosed
	}
	g := v.geometry(width, height)
	if width == v.width && height == v.height && g == v.machine.Geometry() {
		return false, nil
	}
	v.width, v.height = width, height
	v.machine.SetGeometry(g)
	return true, nil
}

// Dispatch feeds one input event to the view. Pointer moves are coalesced:
// only the latest move of a frame is applied, when the frame comes due or
// when any other event or Frame call flushes it. The returned result is empty
// for a move that was deferred.
func (v *Viewer) Dispatch(e interaction.Event) (interaction.Result, error) {
	if err := e.Validate(); err != nil {
		return interaction.Result{}, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return interaction.Result{}, ErrClosed
	}
	if e.Kind == interaction.KindPointerMove {
		v.frames.Schedule(func() { v.apply(e) })
		return interaction.Result{}, nil
	}
	v.frames.Flush()
	return v.apply(e), nil
}

// apply runs an event through the machine and publishes the outcome.
// Callers hold v.mu.
func (v *Viewer) apply(e interaction.Event) interaction.Result {
	res := v.machine.Handle(e)
	v.pointer.Publish(v.machine.Pointer())
	v.view.Publish(v.machine.Preview())
	return res
}

// Flush applies a pending coalesced move immediately.
func (v *Viewer) Flush() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames.Flush()
}

// Frame flushes pending input, re-aggregates the samples and projects them.
func (v *Viewer) Frame() (Frame, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return Frame{}, ErrClosed
	}
	v.frames.Flush()
	return v.build(), nil
}

func (v *Viewer) build() Frame {
	g := v.machine.Geometry()
	t := v.machine.Preview()
	ptr := v.machine.Pointer()
	bs := bucket.AggregateVisible(v.samples, g, t, v.cfg.Interaction.LevelOfDetail)

	in := projector.Input{
		Buckets:   bs,
		Geometry:  g,
		Transform: t,
		Pointer:   &ptr,
		Flags:     v.flags,
		Axes:      v.axes,
	}
	f := Frame{
		Width:     v.width,
		Height:    v.height,
		Geometry:  g,
		Transform: v.machine.Transform(),
		Preview:   t,
		Mode:      v.machine.Mode(),
		Pointer:   ptr,
		Flags:     v.flags,
		Buckets:   bs.Len(),
		Samples:   bs.SampleCount(),
	}
	if sel, ok := v.machine.Selection(); ok {
		f.Selection = &sel
		if sel.Valid() {
			in.Selection = &sel
			in.Overlay = bucket.AggregateRegion(v.samples, g, sel.Rect())
		}
	}
	f.Primitives = projector.Project(in)
	return f
}

// SelectedSamples returns, in input order, the samples whose data-pixel
// position lies inside the current selection.
func (v *Viewer) SelectedSamples() []models.Sample {
	v.mu.Lock()
	defer v.mu.Unlock()
	sel, ok := v.machine.Selection()
	if !ok || !sel.Valid() {
		return nil
	}
	g := v.machine.Geometry()
	r := sel.Rect()
	var out []models.Sample
	for _, s := range v.samples {
		if !s.Finite() {
			continue
		}
		if bucket.InRegion(bucket.Position(s, g), r, g) {
			out = append(out, s)
		}
	}
	return out
}

// SampleCount returns the number of samples the viewer was created with.
func (v *Viewer) SampleCount() int {
	return len(v.samples)
}

// SetFlags switches layers on or off.
func (v *Viewer) SetFlags(f projector.Flags) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flags = f
}

// SetAxes changes the axis labelling.
func (v *Viewer) SetAxes(a projector.Axes) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.axes = a
}

// Transform returns the committed transform.
func (v *Viewer) Transform() viewport.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Transform()
}

// Mode returns the interaction state.
func (v *Viewer) Mode() interaction.Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Mode()
}

// Size returns the container size.
func (v *Viewer) Size() r2.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return r2.Point{X: v.width, Y: v.height}
}

// SubscribePointer registers fn for cursor changes.
func (v *Viewer) SubscribePointer(fn func(interaction.PointerState)) broadcast.Subscription {
	return v.pointer.Subscribe(fn)
}

// SubscribeView registers fn for transform changes, live pan included.
func (v *Viewer) SubscribeView(fn func(viewport.Transform)) broadcast.Subscription {
	return v.view.Subscribe(fn)
}

// Close cancels pending work and drops all listeners.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.frames.Cancel()
	v.pointer.Close()
	v.view.Close()
}
