package models

import "time"

// CreateViewerRequest is the body of POST /api/v1/viewers
type CreateViewerRequest struct {
	DatasetID string  `json:"datasetId" binding:"required"`
	Width     float64 `json:"width" binding:"required,gt=0"`
	Height    float64 `json:"height" binding:"required,gt=0"`
}

// ResizeRequest is the body of PUT /api/v1/viewers/:id/size
type ResizeRequest struct {
	Width  float64 `json:"width" binding:"gte=0"`
	Height float64 `json:"height" binding:"gte=0"`
}

// ViewerInfo describes an open viewer session.
type ViewerInfo struct {
	ID        string    `json:"id"`
	DatasetID string    `json:"datasetId"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
