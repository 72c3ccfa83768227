package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justsurfingit/job-success-tracker/internal/handlers"
)

type Deps struct {
	Applications *handlers.ApplicationHandler
	Predictions  *handlers.PredictionHandler
	Analytics    *handlers.AnalyticsHandler
	Settings     *handlers.SettingsHandler
	Jobs         *handlers.JobHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/health", handlers.HealthCheck)

	apps := api.Group("/applications")
	apps.POST("", d.Applications.Create)
	apps.GET("", d.Applications.List)
	apps.GET("/:id", d.Applications.Get)
	apps.PATCH("/:id", d.Applications.Update)
	apps.DELETE("/:id", d.Applications.Delete)
	apps.GET("/:id/events", d.Applications.Events)
	apps.GET("/:id/prediction", d.Predictions.ForApplication)

	api.GET("/predictions", d.Predictions.Dashboard)
	api.POST("/predictions", d.Predictions.Score)

	api.GET("/analytics", d.Analytics.Report)

	api.GET("/settings", d.Settings.Get)
	api.PUT("/settings", d.Settings.Update)

	api.POST("/jobs/extract", d.Jobs.ParseJob)
}
