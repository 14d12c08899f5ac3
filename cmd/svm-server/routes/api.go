package routes

import (
	"github.com/NeKzor/svm/cmd/svm-server/container"
	"github.com/NeKzor/svm/cmd/svm-server/handlers"
	"github.com/NeKzor/svm/cmd/svm-server/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterAPIRoutes registers the versioned API routes
func RegisterAPIRoutes(e *echo.Echo, c *container.Container) {
	query := handlers.NewQueryHandler(c.Components, c.QueryService)
	upload := handlers.NewUploadHandler(c.Components, c.UploadService, c.PageCache)

	api := e.Group("/api/v1")
	{
		api.GET("/latest", query.Latest)                  // GET /api/v1/latest
		api.GET("/latest/:channel", query.Latest)         // GET /api/v1/latest/canary
		api.GET("/list", query.List)                      // GET /api/v1/list
		api.GET("/list/:version", query.List)             // GET /api/v1/list/0.0.0
		api.GET("/list/:version/:system", query.List)     // GET /api/v1/list/0.0.0/windows

		// Upload requires the shared bearer token
		api.POST("/upload", upload.Upload, middleware.BearerAuth(c.Components.Config.Auth.APIToken))
	}
}
