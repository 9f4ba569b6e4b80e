package models

import "time"

// Dataset is a stored, ordered collection of samples.
type Dataset struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	SampleCount int       `json:"sampleCount" db:"sample_count"`
	RangeX      Range     `json:"rangeX"` // raw extent of x before normalization
	RangeY      Range     `json:"rangeY"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// CreateDatasetRequest is the body of POST /api/v1/datasets
type CreateDatasetRequest struct {
	Name      string   `json:"name" binding:"required"`
	Normalize bool     `json:"normalize"` // rescale x/y to [0,1] and keep the raw range
	Samples   []Sample `json:"samples"`
}

// GenerateDatasetRequest is the body of POST /api/v1/datasets/generate
type GenerateDatasetRequest struct {
	Name  string `json:"name"`
	Count int    `json:"count" binding:"min=0,max=100000"`
	Seed  int64  `json:"seed"`
}

// SampleFilter represents pagination parameters for listing samples
type SampleFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// SamplesResponse represents a paginated response of samples
type SamplesResponse struct {
	Data       []Sample `json:"data"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
}

// DatasetSummary describes the distribution of a dataset's samples
type DatasetSummary struct {
	ID          string  `json:"id"`
	SampleCount int     `json:"sampleCount"`
	ZMin        float64 `json:"zMin"`
	ZQ1         float64 `json:"zQ1"`
	ZMedian     float64 `json:"zMedian"`
	ZQ3         float64 `json:"zQ3"`
	ZMax        float64 `json:"zMax"`
	ZMean       float64 `json:"zMean"`
	// Spread is the normalized entropy of sample counts over a coarse
	// SummaryCells x SummaryCells grid: 0 when all samples share a cell,
	// 1 when they are spread evenly.
	Spread        float64 `json:"spread"`
	OccupiedCells int     `json:"occupiedCells"`
	CorrXZ        float64 `json:"corrXZ"`
	CorrYZ        float64 `json:"corrYZ"`
}
