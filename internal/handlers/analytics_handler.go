package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/donations/api/internal/analytics"
	apierrors "github.com/stwalsh4118/donations/api/internal/errors"
	"github.com/stwalsh4118/donations/api/internal/models"
	"github.com/stwalsh4118/donations/api/internal/services"
)

// AnalyticsHandler serves the analytical tables over the loaded years.
type AnalyticsHandler struct {
	service services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler instance.
func NewAnalyticsHandler(service services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// ViewURI binds the :view path parameter.
type ViewURI struct {
	View string `uri:"view" binding:"required"`
}

// ViewQuery represents the query parameters of the single view endpoint.
type ViewQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=10000"`
}

// ViewListResponse lists the available view names.
type ViewListResponse struct {
	Views []string `json:"views"`
}

// YearSummary handles GET /api/v1/years/:year/summary.
func (h *AnalyticsHandler) YearSummary(c *gin.Context) {
	var uri YearURI
	if err := c.ShouldBindUri(&uri); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	report, err := h.service.YearSummary(models.Year(uri.Year))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Combined handles GET /api/v1/combined.
func (h *AnalyticsHandler) Combined(c *gin.Context) {
	report, err := h.service.Combined()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to build combined report", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Views handles GET /api/v1/views and returns every view at once.
func (h *AnalyticsHandler) Views(c *gin.Context) {
	report, err := h.service.Report()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to build views", err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ViewNames handles GET /api/v1/views/names.
func (h *AnalyticsHandler) ViewNames(c *gin.Context) {
	c.JSON(http.StatusOK, ViewListResponse{Views: analytics.ViewNames})
}

// View handles GET /api/v1/views/:view.
func (h *AnalyticsHandler) View(c *gin.Context) {
	var uri ViewURI
	if err := c.ShouldBindUri(&uri); err != nil {
		apierrors.BindingError(c, err)
		return
	}
	var query ViewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	result, err := h.service.View(uri.View, query.Limit)
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownView) {
			apierrors.NotFoundWithCode(c, apierrors.ErrUnknownView, "Unknown view: "+uri.View)
			return
		}
		apierrors.InternalServerError(c, "Failed to build view", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
