package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/donations/api/internal/errors"
	"github.com/stwalsh4118/donations/api/internal/middleware"
	"github.com/stwalsh4118/donations/api/internal/models"
	"github.com/stwalsh4118/donations/api/internal/services"
)

// exportFilePrefix names downloaded exports, followed by the export date.
const exportFilePrefix = "felajanlasok_teljes_export_"

// DatasetHandler handles dataset loading, storage and export requests.
type DatasetHandler struct {
	service services.DatasetService
	backend string
}

// NewDatasetHandler creates a new DatasetHandler instance.
func NewDatasetHandler(service services.DatasetService, backend string) *DatasetHandler {
	return &DatasetHandler{
		service: service,
		backend: backend,
	}
}

// YearURI binds the :year path parameter.
type YearURI struct {
	Year int `uri:"year" binding:"required,min=1900,max=2100"`
}

// LoadQuery represents the query parameters of the load endpoints.
type LoadQuery struct {
	Refresh bool `form:"refresh"`
}

// StorageRequest is the body of PUT /api/v1/storage.
type StorageRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// YearsResponse lists every configured year's status.
type YearsResponse struct {
	Years          []models.YearStatus `json:"years"`
	StorageEnabled bool                `json:"storage_enabled"`
}

// StorageResponse describes the dataset cache.
type StorageResponse struct {
	Enabled bool   `json:"enabled"`
	Backend string `json:"backend"`
}

// Years handles GET /api/v1/years.
func (h *DatasetHandler) Years(c *gin.Context) {
	c.JSON(http.StatusOK, YearsResponse{
		Years:          h.service.Statuses(),
		StorageEnabled: h.service.StorageEnabled(),
	})
}

// LoadYear handles POST /api/v1/years/:year/load.
func (h *DatasetHandler) LoadYear(c *gin.Context) {
	var uri YearURI
	if err := c.ShouldBindUri(&uri); err != nil {
		apierrors.BindingError(c, err)
		return
	}
	var query LoadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Processing load request", map[string]interface{}{
			"year":    uri.Year,
			"refresh": query.Refresh,
		})
	}

	status, err := h.service.LoadYear(c.Request.Context(), models.Year(uri.Year), query.Refresh)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// LoadAll handles POST /api/v1/years/load-all. Partial failures still
// return 200 with the failed years marked; 502 means no year could be loaded.
func (h *DatasetHandler) LoadAll(c *gin.Context) {
	var query LoadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	statuses, err := h.service.LoadAll(c.Request.Context(), query.Refresh)
	if err != nil {
		if noneLoaded(statuses) {
			apierrors.BadGateway(c, "No dataset could be loaded", err)
			return
		}
		if log := middleware.GetLogger(c); log != nil {
			log.Warn("Some datasets failed to load", map[string]interface{}{"error": err.Error()})
		}
	}

	c.JSON(http.StatusOK, YearsResponse{
		Years:          statuses,
		StorageEnabled: h.service.StorageEnabled(),
	})
}

func noneLoaded(statuses []models.YearStatus) bool {
	for _, st := range statuses {
		if st.Status == models.StatusLoaded {
			return false
		}
	}
	return true
}

// Storage handles GET /api/v1/storage.
func (h *DatasetHandler) Storage(c *gin.Context) {
	c.JSON(http.StatusOK, StorageResponse{
		Enabled: h.service.StorageEnabled(),
		Backend: h.backend,
	})
}

// SetStorage handles PUT /api/v1/storage. Disabling clears the cache.
func (h *DatasetHandler) SetStorage(c *gin.Context) {
	var req StorageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	if err := h.service.SetStorageEnabled(c.Request.Context(), *req.Enabled); err != nil {
		respondServiceError(c, err)
		return
	}

	h.Storage(c)
}

// ClearStorage handles DELETE /api/v1/storage.
func (h *DatasetHandler) ClearStorage(c *gin.Context) {
	if err := h.service.ClearStorage(c.Request.Context()); err != nil {
		respondServiceError(c, err)
		return
	}

	h.Years(c)
}

// Export handles GET /api/v1/export as a file download.
func (h *DatasetHandler) Export(c *gin.Context) {
	export := h.service.Export()

	filename := exportFilePrefix + export.ExportDate.Local().Format("2006-01-02") + ".json"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.IndentedJSON(http.StatusOK, export)
}

// respondServiceError maps service errors onto the error envelope.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownYear):
		apierrors.NotFoundWithCode(c, apierrors.ErrUnknownYear, err.Error())
	case errors.Is(err, services.ErrYearNotLoaded):
		apierrors.NotFoundWithCode(c, apierrors.ErrYearNotLoaded, err.Error())
	case errors.Is(err, services.ErrDatasetUnavailable):
		apierrors.BadGateway(c, "Dataset source unavailable", err)
	case errors.Is(err, services.ErrStorageUnavailable):
		apierrors.ServiceUnavailable(c, "Dataset cache unavailable", err)
	default:
		apierrors.InternalServerError(c, "An unexpected error occurred", err)
	}
}
