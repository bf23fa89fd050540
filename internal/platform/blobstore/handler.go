package blobstore

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/pharmassist/synthdata/pkg/pagination"
)

// ArtifactHandler provides Echo HTTP handlers over published artifacts.
type ArtifactHandler struct {
	store Store
}

// NewArtifactHandler creates a new ArtifactHandler.
func NewArtifactHandler(store Store) *ArtifactHandler {
	return &ArtifactHandler{store: store}
}

// RegisterRoutes mounts the artifact routes on the supplied Echo group.
func (h *ArtifactHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/datasets", h.handleList)
	g.GET("/datasets/*", h.handleDownload)
}

func (h *ArtifactHandler) handleList(c echo.Context) error {
	prefix := c.QueryParam("prefix")
	p := pagination.FromContext(c)

	infos, err := h.store.List(c.Request().Context(), prefix)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	resp := pagination.NewResponse(pagination.Slice(infos, p), len(infos), p.Limit, p.Offset)
	filters := url.Values{}
	if prefix != "" {
		filters.Set("prefix", prefix)
	}
	resp.Links = p.Links(c.Request().URL.Path, len(infos), filters)
	return c.JSON(http.StatusOK, resp)
}

func (h *ArtifactHandler) handleDownload(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid key"})
	}
	if _, err := CleanKey(key); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	info, rc, err := h.store.Get(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	if info.ETag != "" {
		c.Response().Header().Set("ETag", `"`+info.ETag+`"`)
	}
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, path.Base(key)))
	return c.Stream(http.StatusOK, contentType, rc)
}
