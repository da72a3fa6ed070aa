// Package smartflags wires remote feature flags into a service unless it runs
// in development.
//
// Startup calls the three hooks in order, each deciding on its own through
// RemoteEnabled:
//
//	b := configuration.NewBuilder().Add(configuration.File("appsettings.json", false))
//	smartflags.AddConfiguration(b, env)                      // remote source
//	cfg, err := b.Build()
//	services := smartflags.AddServices(nil, env)             // fx registrations
//	app := fx.New(fx.Supply(cfg, e), fx.Options(services...), smartflags.Pipeline(env))
//
// Outside development the connection string is read from
// Azure:FeatureFlags:ConnectionString and flags are filtered by the
// environment name used as label.
package smartflags

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
	"github.com/James-Wolfley/smart-feature-flags/features"
	"github.com/James-Wolfley/smart-feature-flags/hosting"
	"github.com/James-Wolfley/smart-feature-flags/remote"
)

// ConnectionStringKey is where the remote store's connection string is read from.
const ConnectionStringKey = "Azure:FeatureFlags:ConnectionString"

// RemoteEnabled is the one switch all three hooks consult.
func RemoteEnabled(env hosting.Environment) bool {
	return !env.IsDevelopment()
}

// AddConfiguration appends the remote feature flag source to b unless env is
// development, and returns b. Nothing is read or validated here: a missing or
// malformed connection string fails b.Build with remote.ErrInvalidConnectionString.
func AddConfiguration(b *configuration.Builder, env hosting.Environment, opts ...remote.Option) *configuration.Builder {
	if !RemoteEnabled(env) {
		return b
	}
	opts = append([]remote.Option{remote.WithLabel(env.Name())}, opts...)
	return b.Add(remote.NewSource(ConnectionStringKey, opts...))
}

// AddServices always registers local feature management and, unless env is
// development, the remote refresher provider.
//
// Resolving *remote.RefresherProvider when the configuration was built
// without a remote source fails at resolution time with
// remote.ErrProviderNotConfigured. In development the type is simply not
// registered; optional injection yields nil.
func AddServices(services []fx.Option, env hosting.Environment) []fx.Option {
	services = append(services, features.Module)
	if RemoteEnabled(env) {
		services = append(services, remote.Module)
	}
	return services
}

// Use adds the per-request refresh check to e unless env is development.
// Outside development a nil refreshers fails with remote.ErrMissingServices.
func Use(e *echo.Echo, env hosting.Environment, refreshers *remote.RefresherProvider) error {
	if !RemoteEnabled(env) {
		return nil
	}
	return remote.UseRefresh(e, refreshers)
}

type pipelineParams struct {
	fx.In

	Echo       *echo.Echo
	Refreshers *remote.RefresherProvider `optional:"true"`
}

// Pipeline is Use as an fx invocation. It needs an *echo.Echo.
func Pipeline(env hosting.Environment) fx.Option {
	return fx.Invoke(func(p pipelineParams) error {
		return Use(p.Echo, env, p.Refreshers)
	})
}
