package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lexdraft/doc-template-service/api/handler"
	"github.com/lexdraft/doc-template-service/api/middleware"
)

// SetupRouter builds the gin engine with all endpoints and middleware.
func SetupRouter(
	templateHandler *handler.TemplateHandler,
	generateHandler *handler.GenerateHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		templates := api.Group("/templates")
		{
			// Upload a template - POST /api/templates
			templates.POST("", templateHandler.UploadTemplate)

			// List templates - GET /api/templates
			templates.GET("", templateHandler.ListTemplates)

			// Get one template - GET /api/templates/:id
			templates.GET("/:id", templateHandler.GetTemplate)

			// Get fillable fields - GET /api/templates/:id/fields
			templates.GET("/:id/fields", templateHandler.GetTemplateFields)

			// Replace source content - PUT /api/templates/:id/content
			templates.PUT("/:id/content", templateHandler.UpdateTemplateContent)

			// Generation history - GET /api/templates/:id/generations
			templates.GET("/:id/generations", generateHandler.ListHistory)

			// Delete a template - DELETE /api/templates/:id
			templates.DELETE("/:id", templateHandler.DeleteTemplate)
		}

		generate := api.Group("/generate")
		{
			// Submit a generation job - POST /api/generate
			generate.POST("", generateHandler.SubmitJob)

			// Poll a job - GET /api/generate/:job_id
			generate.GET("/:job_id", generateHandler.GetJobStatus)

			// Cancel a queued job - DELETE /api/generate/:job_id
			generate.DELETE("/:job_id", generateHandler.CancelJob)

			// Download the finished document - GET /api/generate/:job_id/download
			generate.GET("/:job_id/download", generateHandler.DownloadResult)
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors enables cross-origin requests when the form UI is served from another
// origin.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
