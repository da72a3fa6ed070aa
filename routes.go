package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/James-Wolfley/smart-feature-flags/db"
	"github.com/James-Wolfley/smart-feature-flags/features"
)

func registerRoutes(server *echo.Echo, app *Application) {
	server.GET("/healthz", app.Health)
	server.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))

	server.GET("/api/features", app.APIFeatures)
	server.GET("/api/features/:name", app.APIFeature)
	if app.Repo != nil {
		server.PUT("/api/settings/:key", app.PutSetting)
	}

	server.GET("/beta", app.Beta, features.Gate(app.Features, "Beta"))
}

func (app *Application) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":      "ok",
		"environment": app.Env.Name(),
	})
}

func (app *Application) APIFeatures(c echo.Context) error {
	defs := app.Definitions.GetAllFeatureDefinitions()
	if defs == nil {
		defs = []features.Definition{}
	}
	return c.JSON(http.StatusOK, defs)
}

func (app *Application) APIFeature(c echo.Context) error {
	def, ok := app.Definitions.GetFeatureDefinition(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown feature")
	}
	return c.JSON(http.StatusOK, def)
}

type settingRequest struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PutSetting stores a setting and reloads the configuration so it applies to the next request.
func (app *Application) PutSetting(c echo.Context) error {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing key")
	}
	var req settingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	s := db.Setting{Key: key, Value: req.Value, Label: req.Label, UpdatedAt: time.Now().UTC()}
	ctx := c.Request().Context()
	if err := app.Repo.UpsertSetting(ctx, s); err != nil {
		log.WithError(err).WithField("key", key).Error("upsert setting")
		return echo.NewHTTPError(http.StatusInternalServerError, "store setting failed")
	}
	if err := app.Config.Reload(); err != nil {
		log.WithError(err).Error("reload configuration")
		return echo.NewHTTPError(http.StatusInternalServerError, "reload failed")
	}
	return c.JSON(http.StatusOK, s)
}

func (app *Application) Beta(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"feature": "Beta",
		"enabled": app.Features.Enabled(),
	})
}
