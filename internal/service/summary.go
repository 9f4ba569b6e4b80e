package service

import (
	"github.com/jengzang/heatmap-viewer-go/internal/bucket"
	"github.com/jengzang/heatmap-viewer-go/internal/grid"
	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/stats"
)

// SummaryCells is the number of columns and rows of the grid used to
// measure spatial spread.
const SummaryCells = 10

// Summary computes distribution statistics for a stored dataset.
func (s *DatasetService) Summary(id string) (*models.DatasetSummary, error) {
	_, samples, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	sum := Summarize(samples)
	sum.ID = id
	return sum, nil
}

// Summarize computes distribution statistics over samples. Non-finite
// samples are skipped.
func Summarize(samples []models.Sample) *models.DatasetSummary {
	xs := make([]float64, 0, len(samples))
	ys := make([]float64, 0, len(samples))
	zs := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if !sample.Finite() {
			continue
		}
		xs = append(xs, sample.X)
		ys = append(ys, sample.Y)
		zs = append(zs, sample.Z)
	}

	out := &models.DatasetSummary{SampleCount: len(zs)}
	if len(zs) == 0 {
		return out
	}
	out.ZMin, out.ZQ1, out.ZMedian, out.ZQ3, out.ZMax = stats.FiveNumberSummary(zs)
	out.ZMean = stats.Mean(zs)
	out.CorrXZ = stats.PearsonCorrelation(xs, zs)
	out.CorrYZ = stats.PearsonCorrelation(ys, zs)

	g := grid.Compute(SummaryCells, SummaryCells, 1, 1, 0, 0)
	bs := bucket.Aggregate(samples, g)
	counts := make([]float64, g.Columns*g.Rows)
	for _, b := range bs.Cells() {
		counts[b.Cell.Row*g.Columns+b.Cell.Column] = float64(b.Count())
	}
	out.Spread = stats.NormalizedEntropy(counts)
	out.OccupiedCells = bs.Len()
	return out
}
