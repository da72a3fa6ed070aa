package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/James-Wolfley/smart-feature-flags/db"
	"github.com/James-Wolfley/smart-feature-flags/features"
	"github.com/James-Wolfley/smart-feature-flags/hosting"
	"github.com/James-Wolfley/smart-feature-flags/remote"
)

func newTestServer(t *testing.T, withDB bool) *echo.Echo {
	t.Helper()
	env := hosting.New(hosting.Development)

	var repo db.Repo
	if withDB {
		sqlDB, err := db.Open(filepath.Join(t.TempDir(), "settings.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = sqlDB.Close() })
		require.NoError(t, db.ApplyMigrations(context.Background(), sqlDB))
		repo = db.NewRepo(sqlDB)
	}

	reg := prometheus.NewRegistry()
	opts := options{configFile: filepath.Join(t.TempDir(), "missing.json")}
	cfg, err := buildConfiguration(opts, env, repo, remote.NewMetrics(reg))
	require.NoError(t, err)

	definitions := features.NewConfigurationDefinitionProvider(cfg)
	app := &Application{
		Env:         env,
		Config:      cfg,
		Definitions: definitions,
		Features:    features.NewManager(definitions),
		Registry:    reg,
		Repo:        repo,
	}
	server := echo.New()
	registerRoutes(server, app)
	return server
}

func do(server *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(t, false), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","environment":"Development"}`, rec.Body.String())
}

func TestFeaturesEmpty(t *testing.T) {
	server := newTestServer(t, false)

	rec := do(server, http.MethodGet, "/api/features", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(server, http.MethodGet, "/api/features/Beta", "").Code)
	assert.Equal(t, http.StatusNotFound, do(server, http.MethodGet, "/beta", "").Code)
}

func TestSettingsRouteNeedsDB(t *testing.T) {
	rec := do(newTestServer(t, false), http.MethodPut, "/api/settings/FeatureManagement:Beta", `{"value":"true"}`)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestPutSettingReloadsConfiguration(t *testing.T) {
	server := newTestServer(t, true)
	assert.Equal(t, http.StatusNotFound, do(server, http.MethodGet, "/beta", "").Code)

	rec := do(server, http.MethodPut, "/api/settings/FeatureManagement:Beta", `{"value":"true"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(server, http.MethodGet, "/api/features/beta", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Beta"`)

	assert.Equal(t, http.StatusOK, do(server, http.MethodGet, "/beta", "").Code)
}

func TestBuildConfigurationLayersSources(t *testing.T) {
	t.Setenv("SMARTFLAGS_FeatureManagement__Beta", "true")

	opts := options{configFile: filepath.Join(t.TempDir(), "missing.json")}
	cfg, err := buildConfiguration(opts, hosting.New(hosting.Development), nil, nil)
	require.NoError(t, err)
	assert.True(t, cfg.Bool("FeatureManagement:Beta"))

	_, err = buildConfiguration(opts, hosting.New(hosting.Production), nil, nil)
	assert.ErrorIs(t, err, remote.ErrInvalidConnectionString)
}

