package service

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/jengzang/heatmap-viewer-go/internal/auth"
	"github.com/jengzang/heatmap-viewer-go/internal/database"
	"github.com/jengzang/heatmap-viewer-go/internal/frame"
	"github.com/jengzang/heatmap-viewer-go/internal/interaction"
	"github.com/jengzang/heatmap-viewer-go/internal/kafkabus"
	"github.com/jengzang/heatmap-viewer-go/internal/logging"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/repository"
	"github.com/jengzang/heatmap-viewer-go/internal/viewer"
)

func newDatasetService(t *testing.T, maxSamples int) *DatasetService {
	t.Helper()
	conn, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "svc.db"), Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewDatasetService(repository.NewDatasetRepository(conn), maxSamples, logging.Discard())
}

type recorder struct {
	updates []kafkabus.Update
}

func (r *recorder) Publish(u kafkabus.Update) { r.updates = append(r.updates, u) }
func (r *recorder) Close() error              { return nil }

func newViewerService(t *testing.T, ds *DatasetService, pub kafkabus.Publisher) *ViewerService {
	t.Helper()
	vc := viewer.DefaultConfig()
	vc.Scheduler = &frame.ManualScheduler{}
	svc := NewViewerService(ds, ViewerOptions{
		Viewer:     vc,
		TTL:        time.Minute,
		MaxViewers: 2,
		Signer:     auth.NewSigner("test", time.Hour),
		Publisher:  pub,
		Logger:     logging.Discard(),
	})
	t.Cleanup(svc.Shutdown)
	return svc
}

func TestGenerateSamples(t *testing.T) {
	a := GenerateSamples(50, 7)
	b := GenerateSamples(50, 7)
	if len(a) != 50 {
		t.Fatalf("len = %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed differs at %d", i)
		}
		s := a[i]
		if !s.InUnitSquare() || s.Z < 0 || s.Z > 1 {
			t.Errorf("sample out of range: %+v", s)
		}
		if i > 0 && (a[i-1].X > s.X || (a[i-1].X == s.X && a[i-1].Y > s.Y)) {
			t.Errorf("samples not sorted at %d", i)
		}
	}
}

func TestNormalizeSamples(t *testing.T) {
	samples := []models.Sample{
		{Name: "a", X: 10, Y: 5},
		{Name: "b", X: 30, Y: 5},
		{Name: "c", X: 20, Y: 5},
	}
	rx, ry := NormalizeSamples(samples)
	if rx != (models.Range{Min: 10, Max: 30, Span: 20}) {
		t.Errorf("rangeX = %+v", rx)
	}
	if ry.Span != 0 {
		t.Errorf("rangeY = %+v", ry)
	}
	want := []float64{0, 1, 0.5}
	for i, s := range samples {
		if s.X != want[i] || s.Y != 0 {
			t.Errorf("sample %d = %+v, want x %v y 0", i, s, want[i])
		}
	}
}

func TestCreateDataset(t *testing.T) {
	svc := newDatasetService(t, 3)

	ds, err := svc.Create(models.CreateDatasetRequest{
		Name:      "raw",
		Normalize: true,
		Samples:   []models.Sample{{Name: "a", X: 100, Y: -1, Z: 2}, {Name: "b", X: 200, Y: 1, Z: 0.5}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if ds.RangeX.Min != 100 || ds.RangeX.Span != 100 || ds.SampleCount != 2 {
		t.Errorf("dataset = %+v", ds)
	}
	_, samples, err := svc.Load(ds.ID)
	if err != nil {
		t.Fatal(err)
	}
	if samples[0].X != 0 || samples[1].Y != 1 || samples[0].Z != 1 {
		t.Errorf("stored samples = %+v", samples)
	}

	tests := []struct {
		name string
		req  models.CreateDatasetRequest
	}{
		{name: "nan", req: models.CreateDatasetRequest{Name: "x", Samples: []models.Sample{{X: math.NaN()}}}},
		{name: "too many", req: models.CreateDatasetRequest{Name: "x", Samples: make([]models.Sample, 4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(tt.req); !errors.Is(err, ErrInvalidSample) {
				t.Errorf("Create() error = %v, want ErrInvalidSample", err)
			}
		})
	}
}

func TestGenerateAndPage(t *testing.T) {
	svc := newDatasetService(t, 0)
	ds, err := svc.Generate(models.GenerateDatasetRequest{Count: 25, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Name != "random-25" || ds.SampleCount != 25 {
		t.Errorf("dataset = %+v", ds)
	}

	page, err := svc.Samples(ds.ID, models.SampleFilter{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 5 || page.Total != 25 || page.TotalPages != 3 {
		t.Errorf("page = %+v", page)
	}
	if page.Data[0] != GenerateSamples(25, 1)[20] {
		t.Errorf("page does not follow stored order")
	}

	if _, err := svc.Samples("missing", models.SampleFilter{}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Samples(missing) error = %v", err)
	}
}

func TestViewerLifecycle(t *testing.T) {
	ds := newDatasetService(t, 0)
	d, _ := ds.Create(models.CreateDatasetRequest{Name: "d", Samples: []models.Sample{
		{Name: "p:0", X: 0.125, Y: 0.125, Z: 0.2},
		{Name: "p:1", X: 0.5, Y: 0.5, Z: 0.9},
	}})
	pub := &recorder{}
	svc := newViewerService(t, ds, pub)

	sess, token, err := svc.Open(models.CreateViewerRequest{DatasetID: d.ID, Width: 1050, Height: 530})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := svc.Authorize(sess.ID, token); err != nil {
		t.Errorf("Authorize() error = %v", err)
	}
	if err := svc.Authorize("other", token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("Authorize(other) error = %v", err)
	}

	if _, err := svc.Dispatch(sess.ID, interaction.Event{Kind: interaction.KindWheel, X: 300, Y: 200, DeltaY: -1}); err != nil {
		t.Fatal(err)
	}
	if len(pub.updates) == 0 || pub.updates[len(pub.updates)-1].Kind != "view" {
		t.Errorf("updates = %+v, want a view update", pub.updates)
	}

	f, err := svc.Frame(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if f.Samples != 2 || f.Transform.ScaleX != 1.125 {
		t.Errorf("frame = %d samples, scale %v", f.Samples, f.Transform.ScaleX)
	}
	if info := svc.Info(sess); info.Samples != 2 || info.DatasetID != d.ID {
		t.Errorf("info = %+v", info)
	}

	if err := svc.Close(sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Frame(sess.ID); !errors.Is(err, ErrViewerNotFound) {
		t.Errorf("Frame after Close error = %v", err)
	}
}

func TestViewerLimitAndSweep(t *testing.T) {
	ds := newDatasetService(t, 0)
	d, _ := ds.Generate(models.GenerateDatasetRequest{Count: 5, Seed: 3})
	svc := newViewerService(t, ds, nil)
	now := time.Now()
	svc.now = func() time.Time { return now }

	req := models.CreateViewerRequest{DatasetID: d.ID, Width: 200, Height: 100}
	a, _, err := svc.Open(req)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Open(req); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Open(req); !errors.Is(err, ErrTooManyViewers) {
		t.Errorf("third Open() error = %v", err)
	}

	now = now.Add(45 * time.Second)
	svc.Get(a.ID)
	now = now.Add(30 * time.Second)
	if n := svc.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want the untouched viewer only", n)
	}
	if svc.Len() != 1 {
		t.Errorf("Len() = %d", svc.Len())
	}
	if _, err := svc.Get(a.ID); err != nil {
		t.Errorf("recently used viewer expired: %v", err)
	}

	if _, _, err := svc.Open(models.CreateViewerRequest{DatasetID: "missing", Width: 1, Height: 1}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Open(missing) error = %v", err)
	}
}

func TestActiveSessionOutlivesToken(t *testing.T) {
	ds := newDatasetService(t, 0)
	d, _ := ds.Generate(models.GenerateDatasetRequest{Count: 5, Seed: 3})
	vc := viewer.DefaultConfig()
	vc.Scheduler = &frame.ManualScheduler{}
	// Tokens from this signer are already past their expiry when issued.
	svc := NewViewerService(ds, ViewerOptions{
		Viewer: vc,
		TTL:    time.Minute,
		Signer: auth.NewSigner("test", -time.Second),
		Logger: logging.Discard(),
	})
	t.Cleanup(svc.Shutdown)
	now := time.Now()
	svc.now = func() time.Time { return now }

	sess, token, err := svc.Open(models.CreateViewerRequest{DatasetID: d.ID, Width: 200, Height: 100})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		now = now.Add(45 * time.Second)
		if _, err := svc.Get(sess.ID); err != nil {
			t.Fatal(err)
		}
		svc.Sweep()
		if err := svc.Authorize(sess.ID, token); err != nil {
			t.Fatalf("Authorize() on a live session after %d touches: %v", i+1, err)
		}
	}

	now = now.Add(2 * time.Minute)
	if n := svc.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want the idle session expired", n)
	}
	if err := svc.Authorize(sess.ID, token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("Authorize() after expiry error = %v, want ErrInvalidToken", err)
	}
}

func TestNormalizedDatasetKeepsEdgeSamples(t *testing.T) {
	ds := newDatasetService(t, 0)
	d, err := ds.Create(models.CreateDatasetRequest{Name: "raw", Normalize: true, Samples: []models.Sample{
		{Name: "a", X: 10, Y: 100, Z: 0.5},
		{Name: "b", X: 15, Y: 200, Z: 0.5},
		{Name: "c", X: 20, Y: 150, Z: 0.5},
	}})
	if err != nil {
		t.Fatal(err)
	}
	svc := newViewerService(t, ds, nil)
	sess, _, err := svc.Open(models.CreateViewerRequest{DatasetID: d.ID, Width: 1050, Height: 530})
	if err != nil {
		t.Fatal(err)
	}
	f, err := svc.Frame(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if f.Samples != 3 {
		t.Errorf("frame holds %d of 3 samples; the max-x and max-y samples must stay on the grid", f.Samples)
	}
}
