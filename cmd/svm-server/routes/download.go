package routes

import (
	"github.com/NeKzor/svm/cmd/svm-server/container"
	"github.com/NeKzor/svm/cmd/svm-server/handlers"
	"github.com/labstack/echo/v4"
)

// RegisterDownloadRoutes registers the artifact download route
func RegisterDownloadRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewDownloadHandler(c.Components, c.QueryService)

	e.GET("/:version/:system/:name", h.Download) // GET /0.0.0/windows/sar.dll
}
