package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/NeKzor/svm/cmd/svm-server/service"
	"github.com/NeKzor/svm/common/bootstrap"
	"github.com/NeKzor/svm/common/cache"
	"github.com/labstack/echo/v4"
)

// indexCacheKey holds the rendered page, dropped on every successful upload
const indexCacheKey = "page:index"

const indexCacheTTL = 5 * time.Minute

// IndexHandler renders the human-readable listing page
type IndexHandler struct {
	components *bootstrap.Components
	query      *service.QueryService
	pages      cache.Cache
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(components *bootstrap.Components, query *service.QueryService, pages cache.Cache) *IndexHandler {
	return &IndexHandler{
		components: components,
		query:      query,
		pages:      pages,
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
  <body>
    <h3>Latest</h3>
    <ul>
      {{- range .Latest}}
      <li>{{.Version}} | {{.Date}} | {{.Commit}}</li>
      {{- end}}
    </ul>
    <h3>All</h3>
    <ul>
      {{- range .Releases}}
      <li>{{.Version}}
        <ul>
          {{- range .Files}}
          <li><a href="/{{.Version}}/{{.System}}/{{.Name}}">{{.Name}}</a> | {{.Date}} | {{.Hash}}</li>
          {{- end}}
        </ul>
      </li>
      {{- end}}
    </ul>
  </body>
</html>
`))

type indexLatestRow struct {
	Version string
	Date    string
	Commit  string
}

type indexFileRow struct {
	Version string
	System  string
	Name    string
	Date    string
	Hash    string
}

type indexReleaseRow struct {
	Version string
	Files   []indexFileRow
}

type indexView struct {
	Latest   []indexLatestRow
	Releases []indexReleaseRow
}

// Index renders the listing page
// GET /
func (h *IndexHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()

	if page, found, err := h.pages.Get(ctx, indexCacheKey); err == nil && found {
		return c.HTML(http.StatusOK, string(page))
	}

	overview, err := h.query.GetOverview(ctx)
	if err != nil {
		h.components.Logger.Error("failed to build overview", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Listing failed.")
	}

	view := indexView{}
	for _, release := range overview.Latest {
		view.Latest = append(view.Latest, indexLatestRow{
			Version: release.Version,
			Date:    formatDate(release.Date),
			Commit:  release.Commit,
		})
	}
	for _, group := range overview.Releases {
		row := indexReleaseRow{Version: group.Version}
		for _, bin := range group.Files {
			row.Files = append(row.Files, indexFileRow{
				Version: bin.Version,
				System:  string(bin.System),
				Name:    bin.Name,
				Date:    formatDate(bin.Date),
				Hash:    bin.Hash,
			})
		}
		view.Releases = append(view.Releases, row)
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, view); err != nil {
		h.components.Logger.Error("failed to render index", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Rendering failed.")
	}

	if err := h.pages.Set(ctx, indexCacheKey, buf.Bytes(), indexCacheTTL); err != nil {
		h.components.Logger.Warn("failed to cache index page", "error", err)
	}

	return c.HTML(http.StatusOK, buf.String())
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}
