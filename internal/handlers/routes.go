package handlers

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Health    *HealthHandler
	Datasets  *DatasetHandler
	Analytics *AnalyticsHandler
}

// RegisterRoutes mounts the health endpoints at the root and everything else
// under /api/v1.
func RegisterRoutes(router gin.IRouter, h Handlers) {
	router.GET("/health", h.Health.Health)
	router.GET("/health/ready", h.Health.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", h.Health.Info)

		years := v1.Group("/years")
		{
			years.GET("", h.Datasets.Years)
			years.POST("/load-all", h.Datasets.LoadAll)
			years.POST("/:year/load", h.Datasets.LoadYear)
			years.GET("/:year/summary", h.Analytics.YearSummary)
		}

		storage := v1.Group("/storage")
		{
			storage.GET("", h.Datasets.Storage)
			storage.PUT("", h.Datasets.SetStorage)
			storage.DELETE("", h.Datasets.ClearStorage)
		}

		v1.GET("/export", h.Datasets.Export)
		v1.GET("/combined", h.Analytics.Combined)

		views := v1.Group("/views")
		{
			views.GET("", h.Analytics.Views)
			views.GET("/names", h.Analytics.ViewNames)
			views.GET("/:view", h.Analytics.View)
		}
	}
}
