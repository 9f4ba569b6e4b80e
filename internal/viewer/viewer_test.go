package viewer

import (
	"errors"
	"testing"

	"github.com/jengzang/heatmap-viewer-go/internal/frame"
	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/projector"
	"github.com/jengzang/heatmap-viewer-go/internal/viewport"
)

// 1050 x 530 with the default padding leaves a 1000 x 500 grid.
func newTestViewer(t *testing.T, samples []models.Sample) (*Viewer, *frame.ManualScheduler) {
	t.Helper()
	sched := &frame.ManualScheduler{}
	cfg := DefaultConfig()
	cfg.Scheduler = sched
	v := New(samples, 1050, 530, cfg)
	t.Cleanup(v.Close)
	return v, sched
}

func testSamples() []models.Sample {
	return []models.Sample{
		{Name: "p:0", X: 0.125, Y: 0.125, Z: 0.2},
		{Name: "p:1", X: 0.1875, Y: 0.109375, Z: 0.8},
		{Name: "p:2", X: 0.5, Y: 0.5, Z: 0.5},
		{Name: "p:3", X: 0.875, Y: 0.875, Z: 1},
	}
}

func ev(kind interaction.Kind, x, y float64) interaction.Event {
	return interaction.Event{Kind: kind, X: x, Y: y}
}

func countLayer(f Frame, l projector.Layer) int {
	n := 0
	for _, p := range f.Primitives {
		if p.Layer == l {
			n++
		}
	}
	return n
}

func TestInitialFrame(t *testing.T) {
	v, _ := newTestViewer(t, testSamples())
	f, err := v.Frame()
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if f.Geometry.Columns != 10 || f.Geometry.Rows != 20 {
		t.Errorf("geometry = %+v", f.Geometry)
	}
	if f.Buckets != 3 || f.Samples != 4 {
		t.Errorf("buckets = %d samples = %d, want 3 and 4", f.Buckets, f.Samples)
	}
	if got := countLayer(f, projector.LayerTiles); got != 3 {
		t.Errorf("tiles = %d, want 3", got)
	}
	if got := countLayer(f, projector.LayerBubbles); got != 4 {
		t.Errorf("bubbles = %d, want 4", got)
	}
	if f.Mode != interaction.ModeIdle || !f.Transform.IsIdentity() {
		t.Errorf("unexpected initial state %v %+v", f.Mode, f.Transform)
	}
}

func TestMovesAreCoalesced(t *testing.T) {
	v, sched := newTestViewer(t, nil)
	var views []viewport.Transform
	v.SubscribeView(func(tr viewport.Transform) { views = append(views, tr) })

	if _, err := v.Dispatch(ev(interaction.KindPointerDown, 200, 200)); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 5; i++ {
		v.Dispatch(ev(interaction.KindPointerMove, 200+float64(i)*10, 200))
	}
	if sched.Armed() != 1 {
		t.Fatalf("Armed() = %d, want a single pending frame", sched.Armed())
	}
	if n := len(views); n != 1 {
		t.Fatalf("views before the frame = %d, want 1 (from pointer down)", n)
	}

	sched.Tick()
	if n := len(views); n != 2 {
		t.Fatalf("views after the frame = %d, want 2", n)
	}
	if got := views[1].OriginX; got != 50 {
		t.Errorf("preview origin = %v, want the latest move (50)", got)
	}
	if !v.Transform().IsIdentity() {
		t.Error("pan committed before release")
	}
}

func TestReleaseFlushesPendingMove(t *testing.T) {
	v, sched := newTestViewer(t, nil)
	v.Dispatch(ev(interaction.KindPointerDown, 200, 200))
	v.Dispatch(ev(interaction.KindPointerMove, 260, 220))
	res, err := v.Dispatch(ev(interaction.KindPointerUp, 280, 230))
	if err != nil {
		t.Fatal(err)
	}
	if !res.ViewChanged {
		t.Error("expected a committed pan")
	}
	if sched.Tick() != 0 {
		t.Error("stale frame still armed after release")
	}
	if tr := v.Transform(); tr.OriginX != 80 || tr.OriginY != 30 {
		t.Errorf("transform = %+v, want origin (80,30)", tr)
	}
}

func TestWheelPublishesOnChange(t *testing.T) {
	v, _ := newTestViewer(t, nil)
	var views []viewport.Transform
	v.SubscribeView(func(tr viewport.Transform) { views = append(views, tr) })

	res, _ := v.Dispatch(interaction.Event{Kind: interaction.KindWheel, X: 300, Y: 200, DeltaY: -1})
	if !res.PreventDefault || !res.ViewChanged {
		t.Errorf("result = %+v", res)
	}
	v.Dispatch(interaction.Event{Kind: interaction.KindWheel, X: 300, Y: 200})
	if len(views) != 1 || views[0].ScaleX != 1.125 {
		t.Errorf("views = %+v, want a single zoom", views)
	}

	v.Dispatch(interaction.Event{Kind: interaction.KindKeyDown, Key: interaction.KeyEscape})
	if len(views) != 2 || !views[1].IsIdentity() {
		t.Errorf("views = %+v, want reset published", views)
	}
}

func TestPointerSubscription(t *testing.T) {
	v, sched := newTestViewer(t, nil)
	var got []interaction.PointerState
	sub := v.SubscribePointer(func(p interaction.PointerState) { got = append(got, p) })

	v.Dispatch(ev(interaction.KindPointerMove, 550, 280))
	sched.Tick()
	if len(got) != 1 || got[0].X != 500 || got[0].NormX != 0.5 {
		t.Fatalf("pointer = %+v", got)
	}

	sub.Remove()
	v.Dispatch(ev(interaction.KindPointerMove, 560, 280))
	sched.Tick()
	if len(got) != 1 {
		t.Errorf("removed listener still called: %+v", got)
	}
}

func TestSelection(t *testing.T) {
	v, _ := newTestViewer(t, testSamples())
	shift := interaction.Modifiers{Shift: true}
	v.Dispatch(interaction.Event{Kind: interaction.KindPointerDown, X: 137, Y: 70, Modifiers: shift})
	v.Dispatch(ev(interaction.KindPointerMove, 220, 90))
	res, _ := v.Dispatch(ev(interaction.KindPointerUp, 220, 90))
	if !res.Finalized {
		t.Fatalf("selection not finalized: %+v", res)
	}

	f, _ := v.Frame()
	if f.Selection == nil || f.Selection.X != 0 || f.Selection.Y != 25 || f.Selection.Width != 200 || f.Selection.Height != 50 {
		t.Fatalf("selection = %+v", f.Selection)
	}
	if countLayer(f, projector.LayerSelection) != 1 || countLayer(f, projector.LayerOverlay) == 0 {
		t.Error("selection or overlay not drawn")
	}

	selected := v.SelectedSamples()
	if len(selected) != 2 || selected[0].Name != "p:0" || selected[1].Name != "p:1" {
		t.Errorf("selected = %+v, want p:0 and p:1", selected)
	}
}

func TestNoSelection(t *testing.T) {
	v, _ := newTestViewer(t, testSamples())
	if got := v.SelectedSamples(); got != nil {
		t.Errorf("selected = %+v, want nil", got)
	}
}

func TestResize(t *testing.T) {
	v, _ := newTestViewer(t, testSamples())
	if changed, err := v.Resize(1050, 530); err != nil || changed {
		t.Errorf("Resize to the same size = %v, %v", changed, err)
	}
	if changed, _ := v.Resize(550, 280); !changed {
		t.Error("Resize to a new size reported no change")
	}
	f, _ := v.Frame()
	if f.Geometry.Columns != 5 || f.Geometry.Rows != 10 {
		t.Errorf("geometry after resize = %+v", f.Geometry)
	}

	v.Resize(0, 0)
	f, err := v.Frame()
	if err != nil {
		t.Fatalf("Frame() on empty geometry: %v", err)
	}
	if f.Buckets != 0 || len(f.Primitives) != 0 {
		t.Errorf("empty geometry produced %d buckets, %d primitives", f.Buckets, len(f.Primitives))
	}
}

func TestFlags(t *testing.T) {
	v, _ := newTestViewer(t, testSamples())
	v.SetFlags(projector.Flags{Tiles: true})
	f, _ := v.Frame()
	if countLayer(f, projector.LayerBubbles) != 0 || countLayer(f, projector.LayerTiles) != 3 {
		t.Errorf("flags not applied: %+v", f.Flags)
	}
}

func TestInvalidEvent(t *testing.T) {
	v, _ := newTestViewer(t, nil)
	if _, err := v.Dispatch(interaction.Event{Kind: "tap"}); !errors.Is(err, interaction.ErrInvalidEvent) {
		t.Errorf("Dispatch(tap) error = %v, want ErrInvalidEvent", err)
	}
}

func TestClosed(t *testing.T) {
	v, sched := newTestViewer(t, nil)
	v.Dispatch(ev(interaction.KindPointerMove, 10, 10))
	v.Close()
	v.Close()

	if sched.Tick() != 0 {
		t.Error("pending frame survived Close")
	}
	if _, err := v.Dispatch(ev(interaction.KindPointerDown, 1, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Dispatch after Close error = %v", err)
	}
	if _, err := v.Frame(); !errors.Is(err, ErrClosed) {
		t.Errorf("Frame after Close error = %v", err)
	}
}
