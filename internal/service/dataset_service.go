package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/repository"
)

// ErrInvalidSample is returned for datasets with unusable samples.
var ErrInvalidSample = errors.New("invalid sample")

// DatasetService handles business logic for datasets
type DatasetService struct {
	repo       *repository.DatasetRepository
	maxSamples int
	log        logrus.FieldLogger
}

// NewDatasetService creates a new dataset service. maxSamples <= 0 means no
// limit.
func NewDatasetService(repo *repository.DatasetRepository, maxSamples int, log logrus.FieldLogger) *DatasetService {
	return &DatasetService{
		repo:       repo,
		maxSamples: maxSamples,
		log:        log.WithField("component", "datasets"),
	}
}

// Create validates, optionally normalizes and stores a dataset.
func (s *DatasetService) Create(req models.CreateDatasetRequest) (*models.Dataset, error) {
	if err := s.checkCount(len(req.Samples)); err != nil {
		return nil, err
	}
	samples := make([]models.Sample, len(req.Samples))
	for i, sample := range req.Samples {
		if !sample.Finite() {
			return nil, fmt.Errorf("%w: sample %d (%q) has a non-finite coordinate", ErrInvalidSample, i, sample.Name)
		}
		samples[i] = sample.ClampZ()
	}

	ds := &models.Dataset{
		ID:     uuid.NewString(),
		Name:   req.Name,
		RangeX: models.UnitRange(),
		RangeY: models.UnitRange(),
	}
	if req.Normalize {
		ds.RangeX, ds.RangeY = NormalizeSamples(samples)
	}
	return s.store(ds, samples)
}

// Generate stores a random dataset.
func (s *DatasetService) Generate(req models.GenerateDatasetRequest) (*models.Dataset, error) {
	count := req.Count
	if count == 0 {
		count = DefaultGenerateCount
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrInvalidSample, count)
	}
	if err := s.checkCount(count); err != nil {
		return nil, err
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("random-%d", count)
	}

	ds := &models.Dataset{
		ID:     uuid.NewString(),
		Name:   name,
		RangeX: models.UnitRange(),
		RangeY: models.UnitRange(),
	}
	return s.store(ds, GenerateSamples(count, seed))
}

func (s *DatasetService) checkCount(n int) error {
	if s.maxSamples > 0 && n > s.maxSamples {
		return fmt.Errorf("%w: %d samples exceeds the limit of %d", ErrInvalidSample, n, s.maxSamples)
	}
	return nil
}

func (s *DatasetService) store(ds *models.Dataset, samples []models.Sample) (*models.Dataset, error) {
	if err := s.repo.Create(ds, samples); err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}
	s.log.WithFields(logrus.Fields{"id": ds.ID, "samples": ds.SampleCount}).Info("dataset created")
	return ds, nil
}

// List returns all datasets
func (s *DatasetService) List() ([]models.Dataset, error) {
	return s.repo.List()
}

// Get returns one dataset
func (s *DatasetService) Get(id string) (*models.Dataset, error) {
	return s.repo.GetByID(id)
}

// Delete removes a dataset
func (s *DatasetService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.log.WithField("id", id).Info("dataset deleted")
	return nil
}

// Load returns a dataset together with all of its samples
func (s *DatasetService) Load(id string) (*models.Dataset, []models.Sample, error) {
	ds, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	samples, err := s.repo.Samples(id)
	if err != nil {
		return nil, nil, err
	}
	return ds, samples, nil
}

// Samples returns one page of a dataset's samples
func (s *DatasetService) Samples(id string, filter models.SampleFilter) (*models.SamplesResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 100
	}
	if filter.PageSize > 1000 {
		filter.PageSize = 1000
	}

	ds, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	samples, err := s.repo.SamplesPage(id, (filter.Page-1)*filter.PageSize, filter.PageSize)
	if err != nil {
		return nil, err
	}

	total := int64(ds.SampleCount)
	return &models.SamplesResponse{
		Data:       samples,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
	}, nil
}
