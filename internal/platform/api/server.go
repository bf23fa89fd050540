// Package api assembles the HTTP surface: health, metrics, case bundles and
// published dataset artifacts.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pharmassist/synthdata/internal/platform/blobstore"
	"github.com/pharmassist/synthdata/internal/platform/middleware"
	"github.com/pharmassist/synthdata/internal/platform/telemetry"
)

type Deps struct {
	Logger     zerolog.Logger
	Store      blobstore.Store
	Metrics    *telemetry.Provider
	SigningKey []byte
}

// NewServer wires middleware and routes. Store and Metrics are optional.
func NewServer(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(d.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.Logger))
	e.Use(middleware.SecurityHeaders())
	if d.Metrics != nil {
		e.Use(d.Metrics.MetricsMiddleware())
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	apiV1 := e.Group("/api/v1", middleware.JWTAuth(middleware.JWTConfig{
		SigningKey: d.SigningKey,
		Skipper:    middleware.PublicSkipper,
	}))

	var onServe func()
	if d.Metrics != nil {
		onServe = d.Metrics.CaseBundleServed
	}
	NewCaseHandler(d.Logger, onServe).RegisterRoutes(apiV1)
	if d.Store != nil {
		blobstore.NewArtifactHandler(d.Store).RegisterRoutes(apiV1)
	}
	return e
}
