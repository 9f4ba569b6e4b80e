package service

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/stats"
)

// DefaultGenerateCount is the sample count used when a request asks for none.
const DefaultGenerateCount = 100

// GenerateSamples returns count uniformly random samples named p:0, p:1, ...
// sorted by x and then y. The same seed always yields the same samples.
func GenerateSamples(count int, seed int64) []models.Sample {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]models.Sample, count)
	for i := range samples {
		samples[i] = models.Sample{
			Name: fmt.Sprintf("p:%d", i),
			X:    rng.Float64(),
			Y:    rng.Float64(),
			Z:    rng.Float64(),
		}
	}
	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].X != samples[j].X {
			return samples[i].X < samples[j].X
		}
		return samples[i].Y < samples[j].Y
	})
	return samples
}

// NormalizeSamples rescales x and y to [0,1] in place and returns the raw
// ranges. An axis with no spread maps every sample to 0.
func NormalizeSamples(samples []models.Sample) (rangeX, rangeY models.Range) {
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i], ys[i] = s.X, s.Y
	}
	minX, maxX, spanX := stats.Extent(xs)
	minY, maxY, spanY := stats.Extent(ys)
	for i := range samples {
		samples[i].X = stats.NormalizeValue(samples[i].X, minX, spanX)
		samples[i].Y = stats.NormalizeValue(samples[i].Y, minY, spanY)
	}
	return models.Range{Min: minX, Max: maxX, Span: spanX}, models.Range{Min: minY, Max: maxY, Span: spanY}
}
