package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Deepkumarmahajan/Retail-Sales-Predicition/services/forecast-service/controllers"
)

// RegisterRoutes mounts the forecast API. auth guards every route except
// the health check; pass nil to leave the API open.
func RegisterRoutes(r *gin.Engine, fc *controllers.ForecastController, auth gin.HandlerFunc) {
	r.GET("/health", fc.Health)

	api := r.Group("/")
	if auth != nil {
		api.Use(auth)
	}
	api.GET("/model", fc.Model)

	forecast := api.Group("/forecast")
	{
		forecast.POST("", fc.Forecast)
		forecast.GET("/jobs/:id", fc.GetJob)
		forecast.POST("/preview", fc.Preview)
		forecast.POST("/summary", fc.Summary)
		forecast.POST("/chart", fc.Chart)
		forecast.GET("/runs", fc.Runs)
	}
}
