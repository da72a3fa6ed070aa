package main

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/James-Wolfley/smart-feature-flags/configuration"
	"github.com/James-Wolfley/smart-feature-flags/db"
	"github.com/James-Wolfley/smart-feature-flags/features"
	"github.com/James-Wolfley/smart-feature-flags/hosting"
	"github.com/James-Wolfley/smart-feature-flags/remote"
	"github.com/James-Wolfley/smart-feature-flags/smartflags"
)

type Application struct {
	Env         hosting.Environment
	Config      *configuration.Configuration
	Definitions features.DefinitionProvider
	Features    *features.Manager
	Registry    *prometheus.Registry
	Repo        db.Repo // nil without --settings-db
}

type applicationParams struct {
	fx.In

	Env         hosting.Environment
	Config      *configuration.Configuration
	Definitions features.DefinitionProvider
	Features    *features.Manager
	Registry    *prometheus.Registry
	Repo        db.Repo `optional:"true"`
}

func newApplication(p applicationParams) *Application {
	return &Application{
		Env:         p.Env,
		Config:      p.Config,
		Definitions: p.Definitions,
		Features:    p.Features,
		Registry:    p.Registry,
		Repo:        p.Repo,
	}
}

func newServer(lc fx.Lifecycle, opts options) *echo.Echo {
	server := echo.New()
	server.HideBanner = true
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.Start(opts.listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("server stopped")
				}
			}()
			log.WithField("listen", opts.listen).Info("listening")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
	return server
}

func newApp(opts options, env hosting.Environment, cfg *configuration.Configuration, repo db.Repo, reg *prometheus.Registry, metrics *remote.Metrics) *fx.App {
	return fx.New(appOptions(opts, env, cfg, repo, reg, metrics))
}

// appOptions is the host's whole graph: logging, server, feature services,
// refresh pipeline and routes.
func appOptions(opts options, env hosting.Environment, cfg *configuration.Configuration, repo db.Repo, reg *prometheus.Registry, metrics *remote.Metrics) fx.Option {
	services := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ConsoleLogger{W: log.StandardLogger().WriterLevel(log.DebugLevel)}
		}),
		fx.Supply(opts, cfg, reg, metrics),
		fx.Provide(func() hosting.Environment { return env }),
		fx.Provide(newServer, newApplication),
	}
	if repo != nil {
		services = append(services, fx.Provide(func() db.Repo { return repo }))
	}
	services = smartflags.AddServices(services, env)

	return fx.Options(
		fx.Options(services...),
		smartflags.Pipeline(env),
		fx.Invoke(registerRoutes),
	)
}
