// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Command menurank computes per-user menu rankings from interaction logs and
// the restaurant reference data.
//
// # Modes
//
// MENURANK_MODE=once (default) performs a single run and exits non-zero on
// failure:
//
//	DATA_DIR=./data OUTPUT_FILE=./data/out.csv menurank
//
// MENURANK_MODE=serve runs under a supervisor tree with a ranking run every
// MENURANK_INTERVAL, an optional MySQL to DuckDB snapshot sync every
// SNAPSHOT_INTERVAL, and the operator HTTP API on HTTP_PORT (default 8470):
//
//	MENURANK_MODE=serve \
//	MENURANK_SOURCE=duckdb MENURANK_SINKS=mysql,redis \
//	SNAPSHOT_ENABLED=true MYSQL_HOST=db MYSQL_PASSWORD=... \
//	menurank
//
// # Backends
//
// The source is one of csv, duckdb or mysql. Sinks are any of csv, duckdb,
// mysql and redis and are written in the listed order; the first failing sink
// fails the run. NATS_ENABLED=true publishes a message on NATS_TOPIC after
// each successful run.
//
// # Signals
//
// SIGINT and SIGTERM cancel the current run in once mode and stop the
// supervisor tree gracefully in serve mode.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("mode", cfg.Run.Mode).
		Str("source", cfg.Run.Source).
		Strs("sinks", cfg.Run.Sinks).
		Bool("snapshot", cfg.Snapshot.Enabled).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Starting menurank")

	app, err := newApp(ctx, cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}

	switch cfg.Run.Mode {
	case config.ModeServe:
		err = app.serve(ctx)
	default:
		err = app.once(ctx)
	}

	if closeErr := app.Close(); closeErr != nil {
		logging.Error().Err(closeErr).Msg("Error releasing resources")
	}
	if code := exitCode(cfg.Run.Mode, err); code != 0 {
		logging.Error().Err(err).Msg("menurank failed")
		cancel()
		os.Exit(code)
	}
	logging.Info().Msg("menurank stopped")
}

// exitCode maps the result of a mode to the process exit status. Canceling
// serve is the normal way to stop it; canceling once means no sink was
// written, which a scheduler must see as a failure.
func exitCode(mode string, err error) int {
	switch {
	case err == nil:
		return 0
	case mode == config.ModeServe && errors.Is(err, context.Canceled):
		return 0
	default:
		return 1
	}
}
