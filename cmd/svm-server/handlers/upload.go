package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/NeKzor/svm/cmd/svm-server/service"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/cache"
	"github.com/labstack/echo/v4"
)

// UploadHandler handles batch uploads from CI
type UploadHandler struct {
	components *bootstrap.Components
	uploads    *service.UploadService
	pages      cache.Cache
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(components *bootstrap.Components, uploads *service.UploadService, pages cache.Cache) *UploadHandler {
	return &UploadHandler{
		components: components,
		uploads:    uploads,
		pages:      pages,
	}
}

// Upload ingests a multipart batch of binary files
// POST /api/v1/upload
func (h *UploadHandler) Upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Invalid request body.")
	}

	req := &service.UploadRequest{
		Version:    c.FormValue("version"),
		SarVersion: c.FormValue("sar_version"),
		System:     c.FormValue("system"),
		Commit:     c.FormValue("commit"),
		Branch:     c.FormValue("branch"),
	}

	count, err := strconv.Atoi(c.FormValue("count"))
	if err != nil {
		count = -1 // fails count validation with the same error as out-of-range
	}
	req.Count = count

	if count >= 1 && count <= 4 {
		req.Files = make([]service.BatchFile, count)
		for i := 0; i < count; i++ {
			headers, ok := form.File[fmt.Sprintf("files[%d]", i)]
			if !ok || len(headers) == 0 {
				continue // left as zero value; the service rejects it at index i
			}
			header := headers[0]
			req.Files[i] = service.BatchFile{
				Name: header.Filename,
				Hash: c.FormValue(fmt.Sprintf("hashes[%d]", i)),
				Open: func() (io.ReadCloser, error) { return header.Open() },
			}
		}
	}

	result, err := h.uploads.Ingest(c.Request().Context(), req)
	if err != nil {
		return h.uploadError(c, err)
	}

	// The listing page is stale now
	if err := h.pages.Delete(c.Request().Context(), indexCacheKey); err != nil {
		h.components.Logger.Warn("failed to invalidate index page", "error", err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *UploadHandler) uploadError(c echo.Context, err error) error {
	var validation *service.ValidationError
	if errors.As(err, &validation) {
		return echo.NewHTTPError(http.StatusBadRequest, validation.Message+".")
	}

	if errors.Is(err, service.ErrInvalidFile) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Invalid file.")
	}

	var mismatch *service.HashMismatchError
	if errors.As(err, &mismatch) {
		return echo.NewHTTPError(http.StatusBadRequest, "File hash mismatch.")
	}

	h.components.Logger.Error("upload failed", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Upload failed.")
}
