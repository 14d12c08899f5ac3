package routes

import (
	"github.com/NeKzor/svm/cmd/svm-server/container"
	"github.com/NeKzor/svm/cmd/svm-server/handlers"
	"github.com/labstack/echo/v4"
)

// RegisterIndexRoutes registers the human-readable listing page
func RegisterIndexRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewIndexHandler(c.Components, c.QueryService, c.PageCache)

	e.GET("/", h.Index)
}
