package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/pdf-processor/api/handlers"
	"github.com/feichai0017/pdf-processor/api/middleware"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handlers.HealthCheck)
	v1.GET("/backends", h.Document.ListBackends)

	docs := v1.Group("/documents")
	{
		docs.POST("/extract", h.Document.ExtractDocument)
		docs.POST("/process", h.Document.ProcessDocument)
		docs.POST("/batch", h.Document.ProcessBatch)
		docs.GET("/status/:taskId", h.Document.GetStatus)
		docs.GET("/download/:taskId", h.Document.DownloadResult)
		docs.DELETE("/task/:taskId", h.Document.CancelTask)
	}
}
