package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pharmassist/synthdata/internal/domain/casebundle"
	"github.com/pharmassist/synthdata/internal/domain/simulation"
	"github.com/pharmassist/synthdata/internal/platform/schema"
	"github.com/pharmassist/synthdata/internal/platform/sink"
)

// CaseHandler serves single case bundles. Bundles are a pure function of
// the seed, so responses carry a strong ETag.
type CaseHandler struct {
	logger  zerolog.Logger
	onServe func()
}

func NewCaseHandler(logger zerolog.Logger, onServe func()) *CaseHandler {
	if onServe == nil {
		onServe = func() {}
	}
	return &CaseHandler{logger: logger, onServe: onServe}
}

func (h *CaseHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/cases/:seed", h.handleGet)
	g.GET("/presets", h.handlePresets)
}

func (h *CaseHandler) handleGet(c echo.Context) error {
	seed, err := strconv.ParseInt(c.Param("seed"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "seed must be an integer")
	}

	bundle := casebundle.Generate(seed)
	if issues := schema.ValidateCaseBundle(bundle); len(issues) > 0 {
		h.logger.Error().Int64("seed", seed).Interface("issues", issues).Msg("generated case bundle failed validation")
		return echo.NewHTTPError(http.StatusInternalServerError, "case bundle failed validation")
	}

	var body []byte
	if pretty, _ := strconv.ParseBool(c.QueryParam("pretty")); pretty {
		body, err = sink.CanonicalIndent(bundle)
	} else {
		body, err = sink.Canonical(bundle)
	}
	if err != nil {
		return err
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}

	h.onServe()
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

func (h *CaseHandler) handlePresets(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"pharmacies": simulation.Presets()})
}
