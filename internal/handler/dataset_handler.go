package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/heatmap-viewer-go/internal/models"
	"github.com/jengzang/heatmap-viewer-go/internal/repository"
	"github.com/jengzang/heatmap-viewer-go/internal/service"
	"github.com/jengzang/heatmap-viewer-go/pkg/response"
)

// DatasetHandler handles HTTP requests for datasets
type DatasetHandler struct {
	service *service.DatasetService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{service: service}
}

// Create handles POST /api/v1/datasets
func (h *DatasetHandler) Create(c *gin.Context) {
	var req models.CreateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ds, err := h.service.Create(req)
	if err != nil {
		datasetError(c, err)
		return
	}
	response.Created(c, ds)
}

// Generate handles POST /api/v1/datasets/generate
func (h *DatasetHandler) Generate(c *gin.Context) {
	var req models.GenerateDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	ds, err := h.service.Generate(req)
	if err != nil {
		datasetError(c, err)
		return
	}
	response.Created(c, ds)
}

// List handles GET /api/v1/datasets
func (h *DatasetHandler) List(c *gin.Context) {
	datasets, err := h.service.List()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, gin.H{
		"data":  datasets,
		"count": len(datasets),
	})
}

// Get handles GET /api/v1/datasets/:id
func (h *DatasetHandler) Get(c *gin.Context) {
	ds, err := h.service.Get(c.Param("id"))
	if err != nil {
		datasetError(c, err)
		return
	}
	response.Success(c, ds)
}

// Delete handles DELETE /api/v1/datasets/:id
func (h *DatasetHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("id")); err != nil {
		datasetError(c, err)
		return
	}
	response.Success(c, nil)
}

// Samples handles GET /api/v1/datasets/:id/samples
func (h *DatasetHandler) Samples(c *gin.Context) {
	var filter models.SampleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.service.Samples(c.Param("id"), filter)
	if err != nil {
		datasetError(c, err)
		return
	}
	response.Success(c, result)
}

// Summary handles GET /api/v1/datasets/:id/summary
func (h *DatasetHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Param("id"))
	if err != nil {
		datasetError(c, err)
		return
	}
	response.Success(c, summary)
}

func datasetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "Dataset not found")
	case errors.Is(err, service.ErrInvalidSample):
		response.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, "Failed to process dataset")
	}
}
