package smartflags

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
	"github.com/James-Wolfley/smart-feature-flags/features"
	"github.com/James-Wolfley/smart-feature-flags/hosting"
	"github.com/James-Wolfley/smart-feature-flags/remote"
)

const (
	malformedSettings = `{"Azure": {"FeatureFlags": {"ConnectionString": "Endpoint=https://mock.azconfig.io;Id=gYiH-le-s0:Yi3EP8VGk0mKRXDpYri"}}}`
	mockSettings      = `{"Azure": {"FeatureFlags": {"ConnectionString": "Endpoint=https://mock.azconfig.io;Id=gYiH-le-s0:Yi3EP8VGk0mKRXDpYri;Secret=NGIxZmZhMzctMTQ3MC00Njk2LThlYWEtOGFkODMwNGUzOTBl"}}}`

	providerNotConfigured = "Unable to access the Azure App Configuration provider. Please ensure that it has been configured correctly."
	missingServices       = "Unable to find the required services. Please add all the required services by calling 'IServiceCollection.AddAzureAppConfiguration' inside the call to 'ConfigureServices(...)' in the application startup code."
)

var nonDevelopment = []string{"Production", "Sandbox", "Staging", "dev"}

// exactEnvironment treats only the exact string "Development" as development.
type exactEnvironment string

func (e exactEnvironment) Name() string        { return string(e) }
func (e exactEnvironment) IsDevelopment() bool { return string(e) == "Development" }

type resolved struct {
	fx.In

	Definitions features.DefinitionProvider
	Refreshers  *remote.RefresherProvider `optional:"true"`
}

func emptyConfiguration(t *testing.T) *configuration.Configuration {
	t.Helper()
	cfg, err := configuration.NewBuilder().Build()
	require.NoError(t, err)
	return cfg
}

func TestRemoteEnabled(t *testing.T) {
	assert.False(t, RemoteEnabled(hosting.New("Development")))
	assert.False(t, RemoteEnabled(hosting.New("development")))
	assert.True(t, RemoteEnabled(hosting.New("Production")))
	assert.True(t, RemoteEnabled(exactEnvironment("development")))
}

func TestAddConfigurationWhenDevelopment(t *testing.T) {
	b := configuration.NewBuilder()
	got := AddConfiguration(b, hosting.New(hosting.Development))

	assert.Same(t, b, got)
	assert.Empty(t, got.Sources())
}

func TestAddConfigurationDevelopmentIsIdempotent(t *testing.T) {
	b := configuration.NewBuilder().Add(configuration.JSON([]byte(mockSettings)))
	env := hosting.New(hosting.Development)
	for i := 0; i < 3; i++ {
		AddConfiguration(b, env)
	}
	assert.Len(t, b.Sources(), 1)

	cfg, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, cfg.Providers(), 1)
}

func TestAddConfigurationWhenNotDevelopment(t *testing.T) {
	for _, name := range nonDevelopment {
		t.Run(name, func(t *testing.T) {
			b := configuration.NewBuilder().Add(configuration.JSON([]byte(mockSettings)))

			// no error here: nothing is read or dialed until build
			got := AddConfiguration(b, hosting.New(name), remote.WithLoadTimeout(300*time.Millisecond))
			assert.Len(t, got.Sources(), 2)

			// the endpoint does not exist, so the first load fails
			_, err := b.Build()
			assert.ErrorIs(t, err, remote.ErrInitialLoad)
			assert.NotErrorIs(t, err, remote.ErrInvalidConnectionString)
		})
	}
}

func TestAddConfigurationMalformedConnectionString(t *testing.T) {
	for _, name := range nonDevelopment {
		t.Run(name, func(t *testing.T) {
			b := configuration.NewBuilder().Add(configuration.JSON([]byte(malformedSettings)))

			// no error here: the connection string is only read at build
			got := AddConfiguration(b, hosting.New(name))
			assert.Len(t, got.Sources(), 2)

			_, err := b.Build()
			assert.ErrorIs(t, err, remote.ErrInvalidConnectionString)
		})
	}
}

func TestAddConfigurationMissingConnectionString(t *testing.T) {
	b := AddConfiguration(configuration.NewBuilder(), hosting.New(hosting.Production))
	require.Len(t, b.Sources(), 1)

	_, err := b.Build()
	assert.ErrorIs(t, err, remote.ErrInvalidConnectionString)
}

func TestAddConfigurationUsesEnvironmentAsLabel(t *testing.T) {
	var labels []string
	store := remote.StoreFunc(func(_ context.Context, label string) ([]remote.Flag, error) {
		labels = append(labels, label)
		return []remote.Flag{{ID: "Beta", Enabled: true}}, nil
	})

	b := configuration.NewBuilder().Add(configuration.JSON([]byte(mockSettings)))
	AddConfiguration(b, hosting.New("Sandbox"), remote.WithStoreFactory(func(cs remote.ConnectionString) (remote.Store, error) {
		assert.Equal(t, "https://mock.azconfig.io", cs.Endpoint)
		return store, nil
	}))

	cfg, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"Sandbox"}, labels)
	assert.True(t, cfg.Bool("FeatureManagement:Beta"))
}

func TestAddConfigurationHonorsHostPredicate(t *testing.T) {
	b := AddConfiguration(configuration.NewBuilder(), exactEnvironment("development"))
	assert.Len(t, b.Sources(), 1)

	b = AddConfiguration(configuration.NewBuilder(), exactEnvironment("Development"))
	assert.Empty(t, b.Sources())
}

func TestAddServicesWhenDevelopment(t *testing.T) {
	var got resolved
	app := fx.New(
		fx.NopLogger,
		fx.Supply(emptyConfiguration(t)),
		fx.Options(AddServices(nil, hosting.New(hosting.Development))...),
		fx.Invoke(func(r resolved) { got = r }),
	)

	require.NoError(t, app.Err())
	assert.NotNil(t, got.Definitions)
	assert.Nil(t, got.Refreshers)
}

func TestAddServicesWhenNotDevelopment(t *testing.T) {
	for _, name := range nonDevelopment {
		t.Run(name, func(t *testing.T) {
			services := AddServices(nil, hosting.New(name))
			assert.Len(t, services, 2)

			var definitions features.DefinitionProvider
			app := fx.New(
				fx.NopLogger,
				fx.Supply(emptyConfiguration(t)),
				fx.Options(services...),
				fx.Populate(&definitions),
			)
			require.NoError(t, app.Err())
			assert.NotNil(t, definitions)

			var refreshers *remote.RefresherProvider
			app = fx.New(
				fx.NopLogger,
				fx.Supply(emptyConfiguration(t)),
				fx.Options(services...),
				fx.Populate(&refreshers),
			)
			require.Error(t, app.Err())
			assert.Contains(t, app.Err().Error(), providerNotConfigured)
		})
	}
}

func TestAddServicesKeepsExistingRegistrations(t *testing.T) {
	existing := fx.Supply(emptyConfiguration(t))
	services := AddServices([]fx.Option{existing}, hosting.New(hosting.Development))
	assert.Len(t, services, 2)
}

func TestUseWhenDevelopment(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		assert.NoError(t, Use(e, hosting.New(hosting.Development), nil))
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUseWhenNotDevelopment(t *testing.T) {
	for _, name := range nonDevelopment {
		t.Run(name, func(t *testing.T) {
			err := Use(echo.New(), hosting.New(name), nil)
			require.ErrorIs(t, err, remote.ErrMissingServices)
			assert.Equal(t, missingServices, err.Error())
		})
	}
}

func TestPipelineWhenDevelopment(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		fx.Supply(emptyConfiguration(t), echo.New()),
		fx.Options(AddServices(nil, hosting.New(hosting.Development))...),
		Pipeline(hosting.New(hosting.Development)),
	)
	assert.NoError(t, app.Err())
}

func TestPipelineWithoutRegistration(t *testing.T) {
	// services registered for development, pipeline built for production
	app := fx.New(
		fx.NopLogger,
		fx.Supply(emptyConfiguration(t), echo.New()),
		fx.Options(AddServices(nil, hosting.New(hosting.Development))...),
		Pipeline(hosting.New(hosting.Production)),
	)
	require.Error(t, app.Err())
	assert.Contains(t, app.Err().Error(), missingServices)
}

func TestStartupOutsideDevelopment(t *testing.T) {
	env := hosting.New("Sandbox")
	flags := []remote.Flag{{ID: "Beta", Enabled: false}}
	store := remote.StoreFunc(func(context.Context, string) ([]remote.Flag, error) {
		return flags, nil
	})

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	b := configuration.NewBuilder().Add(configuration.JSON([]byte(mockSettings)))
	AddConfiguration(b, env,
		remote.WithStoreFactory(func(remote.ConnectionString) (remote.Store, error) { return store, nil }),
		remote.WithRefreshInterval(time.Minute),
		remote.WithClock(func() time.Time { return now }),
	)
	cfg, err := b.Build()
	require.NoError(t, err)

	e := echo.New()
	var manager *features.Manager
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, e),
		fx.Options(AddServices(nil, env)...),
		Pipeline(env),
		fx.Populate(&manager),
	)
	require.NoError(t, app.Err())

	e.GET("/beta", func(c echo.Context) error { return c.String(http.StatusOK, "beta") }, features.Gate(manager, "Beta"))
	get := func() int {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beta", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, get())

	flags = []remote.Flag{{ID: "Beta", Enabled: true}}
	assert.Equal(t, http.StatusNotFound, get())

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, get())
	assert.True(t, manager.IsEnabled("Beta"))
}

func TestRemoteFlagOverridesLocalCaseVariant(t *testing.T) {
	store := remote.StoreFunc(func(context.Context, string) ([]remote.Flag, error) {
		return []remote.Flag{{ID: "Beta", Enabled: true}}, nil
	})

	b := configuration.NewBuilder().
		Add(configuration.JSON([]byte(`{"FeatureManagement": {"beta": false}}`))).
		Add(configuration.JSON([]byte(mockSettings)))
	AddConfiguration(b, hosting.New(hosting.Production),
		remote.WithStoreFactory(func(remote.ConnectionString) (remote.Store, error) { return store, nil }))
	cfg, err := b.Build()
	require.NoError(t, err)

	manager := features.NewManager(features.NewConfigurationDefinitionProvider(cfg))
	for i := 0; i < 200; i++ {
		require.True(t, manager.IsEnabled("Beta"))
		require.True(t, manager.IsEnabled("beta"))
	}
}
