package handlers

import (
	"fmt"
	"net/http"

	"github.com/NeKzor/svm/cmd/svm-server/service"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/models"
	"github.com/labstack/echo/v4"
)

// DownloadHandler streams stored binary files
type DownloadHandler struct {
	components *bootstrap.Components
	query      *service.QueryService
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(components *bootstrap.Components, query *service.QueryService) *DownloadHandler {
	return &DownloadHandler{
		components: components,
		query:      query,
	}
}

// Download streams a single artifact with its integrity metadata
// GET /:version/:system/:name
func (h *DownloadHandler) Download(c echo.Context) error {
	system, ok := models.ParseSystem(c.Param("system"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "File not found.")
	}

	bin, found, err := h.query.Resolve(c.Request().Context(), c.Param("version"), system, c.Param("name"))
	if err != nil {
		h.components.Logger.Error("failed to resolve download", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Lookup failed.")
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "File not found.")
	}

	// Integrity metadata for client-side verification
	c.Response().Header().Set("X-File-Hash", bin.Hash)
	if bin.Size > 0 {
		c.Response().Header().Set("X-File-Size", fmt.Sprintf("%d", bin.Size))
	}

	return c.File(bin.Path)
}
