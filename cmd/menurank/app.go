// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/api"
	"github.com/tomtom215/menurank/internal/checkpoint"
	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/csvfiles"
	"github.com/tomtom215/menurank/internal/database"
	"github.com/tomtom215/menurank/internal/logging"
	"github.com/tomtom215/menurank/internal/mysql"
	"github.com/tomtom215/menurank/internal/notify"
	"github.com/tomtom215/menurank/internal/pipeline"
	"github.com/tomtom215/menurank/internal/scorecache"
	"github.com/tomtom215/menurank/internal/snapshot"
	"github.com/tomtom215/menurank/internal/supervisor"
	"github.com/tomtom215/menurank/internal/supervisor/services"
)

// app owns every long-lived resource of the process.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	db          *database.DB
	mysql       *mysql.Client
	mysqlViews  *mysql.Client // statistics database; same as mysql unless mysql_views is set
	cache       *scorecache.Cache
	checkpoints *checkpoint.Store
	notifier    notify.Notifier

	runner *pipeline.Runner
	syncer *snapshot.Syncer

	closers []func() error
}

// newApp opens the backends the configuration names and wires the pipeline.
// On error everything opened so far is closed.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("Error releasing resources after failed start")
			}
			a = nil
		}
	}()

	if err = a.openBackends(ctx); err != nil {
		return a, err
	}

	source, err := a.source()
	if err != nil {
		return a, err
	}
	sinks, err := a.sinks()
	if err != nil {
		return a, err
	}

	a.notifier = notify.Noop{}
	if cfg.NATS.Enabled {
		pub, pubErr := notify.NewNATSPublisher(cfg.NATS, logger)
		if pubErr != nil {
			return a, fmt.Errorf("nats publisher: %w", pubErr)
		}
		a.notifier = pub
		a.closers = append(a.closers, pub.Close)
	}

	var clock pipeline.Clock = pipeline.SystemClock{}
	if now, ok, nowErr := cfg.Run.FixedNow(); nowErr != nil {
		return a, nowErr
	} else if ok {
		clock = pipeline.FixedClock(now)
		logger.Info().Time("now", now).Msg("Using fixed reference time")
	}

	a.runner, err = pipeline.NewRunner(pipeline.Options{
		Source:       source,
		SourceName:   cfg.Run.Source,
		Sinks:        sinks,
		Notifier:     a.notifier,
		Clock:        clock,
		AbandonedCap: cfg.Session.AbandonedCap,
		Workers:      cfg.Run.Workers,
		Timeout:      cfg.Run.Timeout,
	}, logger)
	if err != nil {
		return a, err
	}

	if cfg.Snapshot.Enabled {
		a.syncer = snapshot.NewSyncer(mysql.NewExtractor(a.mysqlViews, a.mysql), a.db, a.checkpoints, logger)
	}
	return a, nil
}

func (a *app) openBackends(ctx context.Context) error {
	cfg := a.cfg

	if cfg.Run.Uses(config.BackendDuckDB) || cfg.Snapshot.Enabled {
		db, err := database.New(&cfg.Database, a.logger)
		if err != nil {
			return fmt.Errorf("duckdb: %w", err)
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
	}

	if cfg.Run.Uses(config.BackendMySQL) || cfg.Snapshot.Enabled {
		client, err := mysql.Open(ctx, cfg.MySQL, a.logger)
		if err != nil {
			return fmt.Errorf("mysql: %w", err)
		}
		a.mysql = client
		a.mysqlViews = client
		a.closers = append(a.closers, client.Close)
	}

	if cfg.Run.Source == config.BackendMySQL || cfg.Snapshot.Enabled {
		if viewsCfg, separate := cfg.ViewsMySQL(); separate {
			client, err := mysql.Open(ctx, viewsCfg, a.logger)
			if err != nil {
				return fmt.Errorf("mysql views: %w", err)
			}
			a.mysqlViews = client
			a.closers = append(a.closers, client.Close)
		}
	}

	if cfg.Snapshot.Enabled {
		store, err := checkpoint.Open(cfg.Checkpoint, a.logger)
		if err != nil {
			return fmt.Errorf("checkpoints: %w", err)
		}
		a.checkpoints = store
		a.closers = append(a.closers, store.Close)
	}

	if cfg.Run.HasSink(config.BackendRedis) {
		cache, err := scorecache.New(ctx, cfg.Redis, a.logger)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		a.cache = cache
		a.closers = append(a.closers, cache.Close)
	}
	return nil
}

func (a *app) source() (pipeline.Source, error) {
	switch a.cfg.Run.Source {
	case config.BackendCSV:
		dir, err := csvfiles.NewDir(a.cfg.Files.Dir, a.logger)
		if err != nil {
			return nil, err
		}
		return dir, nil
	case config.BackendDuckDB:
		return a.db, nil
	case config.BackendMySQL:
		return mysql.NewExtractor(a.mysqlViews, a.mysql), nil
	default:
		return nil, fmt.Errorf("unknown source %q", a.cfg.Run.Source)
	}
}

func (a *app) sinks() ([]pipeline.Sink, error) {
	sinks := make([]pipeline.Sink, 0, len(a.cfg.Run.Sinks))
	for _, name := range a.cfg.Run.Sinks {
		switch name {
		case config.BackendCSV:
			sinks = append(sinks, csvfiles.NewWriter(a.cfg.Files.Output, a.logger))
		case config.BackendDuckDB:
			sinks = append(sinks, a.db)
		case config.BackendMySQL:
			sinks = append(sinks, mysql.NewRankingStore(a.mysql, a.cfg.MySQL.ChunkSize))
		case config.BackendRedis:
			sinks = append(sinks, a.cache)
		default:
			return nil, fmt.Errorf("unknown sink %q", name)
		}
	}
	return sinks, nil
}

// healthChecks lists the backends the API pings.
func (a *app) healthChecks() map[string]api.Pinger {
	checks := make(map[string]api.Pinger)
	if a.db != nil {
		checks[config.BackendDuckDB] = a.db
	}
	if a.mysql != nil {
		checks[config.BackendMySQL] = a.mysql
	}
	if a.mysqlViews != nil && a.mysqlViews != a.mysql {
		checks["mysql_views"] = a.mysqlViews
	}
	if a.cache != nil {
		checks[config.BackendRedis] = a.cache
	}
	return checks
}

// once syncs the snapshot if enabled, then performs a single run.
func (a *app) once(ctx context.Context) error {
	if a.syncer != nil {
		if _, err := a.syncer.Sync(ctx); err != nil {
			return fmt.Errorf("snapshot sync: %w", err)
		}
	}
	_, err := a.runner.Run(ctx)
	return err
}

// serve runs the supervisor tree until ctx is canceled.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	// Rank against a populated snapshot when possible. A failure here is
	// retried by the snapshot service.
	if a.syncer != nil {
		if _, err := a.syncer.Sync(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Initial snapshot sync failed")
		}
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), treeCfg)

	if a.syncer != nil {
		tree.AddDataService(services.NewSnapshotService(a.syncer, cfg.Snapshot.Interval, a.logger))
	}
	tree.AddRankingService(services.NewRankingService(a.runner, services.RankingServiceConfig{
		RunOnStartup: cfg.Run.RunOnStartup,
		Interval:     cfg.Run.Interval,
	}, a.logger))

	opts := api.Options{
		Runner: a.runner,
		Checks: a.healthChecks(),
		Server: cfg.Server,
	}
	if a.cache != nil {
		opts.Scores = a.cache
	}
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(opts, a.logger),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPService(server, server.Addr, cfg.Server.ShutdownTimeout, a.logger))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	treeErr := <-tree.ServeBackground(ctx)
	if errors.Is(treeErr, context.Canceled) {
		treeErr = nil
	}
	if treeErr != nil {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return treeErr
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
