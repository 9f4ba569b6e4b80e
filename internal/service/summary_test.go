package service

import (
	"errors"
	"math"
	"testing"

	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/repository"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		samples  []models.Sample
		count    int
		spread   float64
		occupied int
	}{
		{name: "empty", samples: nil},
		{
			name: "one cell",
			samples: []models.Sample{
				{X: 0.01, Y: 0.01, Z: 0.1},
				{X: 0.02, Y: 0.03, Z: 0.3},
			},
			count: 2, spread: 0, occupied: 1,
		},
		{
			name: "non-finite skipped",
			samples: []models.Sample{
				{X: math.NaN(), Y: 0.5, Z: 1},
				{X: 0.55, Y: 0.55, Z: 0.5},
			},
			count: 1, spread: 0, occupied: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.samples)
			if got.SampleCount != tt.count || got.Spread != tt.spread || got.OccupiedCells != tt.occupied {
				t.Errorf("Summarize() = %+v", got)
			}
		})
	}
}

func TestSummarizeSpreadAndCorrelation(t *testing.T) {
	var samples []models.Sample
	for row := 0; row < SummaryCells; row++ {
		for col := 0; col < SummaryCells; col++ {
			x := (float64(col) + 0.5) / SummaryCells
			samples = append(samples, models.Sample{X: x, Y: (float64(row) + 0.5) / SummaryCells, Z: x})
		}
	}
	got := Summarize(samples)
	if got.OccupiedCells != SummaryCells*SummaryCells {
		t.Errorf("OccupiedCells = %d", got.OccupiedCells)
	}
	if math.Abs(got.Spread-1) > 1e-9 {
		t.Errorf("Spread = %v, want 1 for an even spread", got.Spread)
	}
	if math.Abs(got.CorrXZ-1) > 1e-9 || math.Abs(got.CorrYZ) > 1e-9 {
		t.Errorf("correlations = %v, %v", got.CorrXZ, got.CorrYZ)
	}
	if got.ZMin != 0.05 || got.ZMax != 0.95 || math.Abs(got.ZMedian-0.5) > 1e-9 {
		t.Errorf("z summary = %+v", got)
	}
}

func TestDatasetSummary(t *testing.T) {
	svc := newDatasetService(t, 0)
	ds, err := svc.Generate(models.GenerateDatasetRequest{Count: 200, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := svc.Summary(ds.ID)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.ID != ds.ID || sum.SampleCount != 200 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.Spread <= 0.5 || sum.Spread > 1 {
		t.Errorf("Spread = %v, want a wide spread for uniform samples", sum.Spread)
	}
	if sum.ZMin > sum.ZQ1 || sum.ZQ1 > sum.ZMedian || sum.ZMedian > sum.ZQ3 || sum.ZQ3 > sum.ZMax {
		t.Errorf("quartiles out of order: %+v", sum)
	}

	if _, err := svc.Summary("missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Summary(missing) error = %v", err)
	}
}
