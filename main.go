package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/James-Wolfley/smart-feature-flags/config"
	"github.com/James-Wolfley/smart-feature-flags/configuration"
	dbpkg "github.com/James-Wolfley/smart-feature-flags/db"
	"github.com/James-Wolfley/smart-feature-flags/hosting"
	"github.com/James-Wolfley/smart-feature-flags/remote"
	"github.com/James-Wolfley/smart-feature-flags/smartflags"
)

type options struct {
	listen      string
	environment string
	configFile  string
	settingsDB  string
	logLevel    string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.listen, "listen", ":8080", "HTTP listen address")
	flag.StringVar(&o.environment, "environment", config.EnvironmentName(), "hosting environment name")
	flag.StringVar(&o.configFile, "config", "appsettings.json", "base settings file (json or yaml), skipped when missing")
	flag.StringVar(&o.settingsDB, "settings-db", "", "SQLite settings database; empty disables it")
	flag.StringVar(&o.logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	level, err := log.ParseLevel(opts.logLevel)
	if err != nil {
		log.Fatalf("bad --log-level: %v", err)
	}
	log.SetLevel(level)

	env := hosting.New(opts.environment)
	log.WithField("environment", env.Name()).Info("starting")

	// 1) Optional settings DB
	var (
		sqlDB *sql.DB
		repo  dbpkg.Repo
	)
	if opts.settingsDB != "" {
		sqlDB, err = dbpkg.Open(opts.settingsDB)
		if err != nil {
			log.Fatalf("open settings db: %v", err)
		}
		defer func(db *sql.DB) { _ = db.Close() }(sqlDB)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = dbpkg.ApplyMigrations(ctx, sqlDB)
		cancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		repo = dbpkg.NewRepo(sqlDB)
	}

	// 2) Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := remote.NewMetrics(reg)

	// 3) Configuration
	cfg, err := buildConfiguration(opts, env, repo, metrics)
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	// 4) Services + pipeline
	app := newApp(opts, env, cfg, repo, reg, metrics)
	if err := app.Err(); err != nil {
		log.Fatalf("startup: %v", err)
	}
	app.Run()
}

func buildConfiguration(opts options, env hosting.Environment, repo dbpkg.Repo, metrics *remote.Metrics) (*configuration.Configuration, error) {
	b := configuration.NewBuilder().
		Add(configuration.File(opts.configFile, true)).
		Add(configuration.File(fmt.Sprintf("appsettings.%s.json", env.Name()), true))
	if repo != nil {
		b.Add(dbpkg.NewSource(repo, env.Name()))
	}
	b.Add(configuration.Env("SMARTFLAGS_"))

	smartflags.AddConfiguration(b, env, remote.WithMetrics(metrics))
	return b.Build()
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
