package handlers

import (
	"net/http"

	"github.com/NeKzor/svm/cmd/svm-server/service"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/models"
	"github.com/labstack/echo/v4"
)

// QueryHandler handles read-side API requests
type QueryHandler struct {
	components *bootstrap.Components
	query      *service.QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(components *bootstrap.Components, query *service.QueryService) *QueryHandler {
	return &QueryHandler{
		components: components,
		query:      query,
	}
}

// Latest returns the latest release version of a channel
// GET /api/v1/latest
// GET /api/v1/latest/:channel
func (h *QueryHandler) Latest(c echo.Context) error {
	name := c.Param("channel")
	if name == "" {
		name = string(models.ChannelRelease)
	}

	channel, ok := models.ParseChannel(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Unknown channel.")
	}

	release, found, err := h.query.Latest(c.Request().Context(), channel)
	if err != nil {
		h.components.Logger.Error("failed to get latest", "channel", channel, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Lookup failed.")
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "No release version found.")
	}

	return c.JSON(http.StatusOK, release)
}

// List returns binary files filtered by version and/or system, newest first
// GET /api/v1/list
// GET /api/v1/list/:version
// GET /api/v1/list/:version/:system
func (h *QueryHandler) List(c echo.Context) error {
	bins, err := h.query.List(c.Request().Context(), c.Param("version"), c.Param("system"))
	if err != nil {
		h.components.Logger.Error("failed to list binaries", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Listing failed.")
	}

	return c.JSON(http.StatusOK, bins)
}
