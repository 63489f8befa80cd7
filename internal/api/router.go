// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/pipeline"
	"github.com/tomtom215/menurank/internal/views"
)

// Runner triggers ranking runs and remembers the last completed one.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Summary, error)
	Last() *pipeline.Summary
}

// Pinger is a health-checked dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ScoreReader looks up cached scores for one user.
type ScoreReader interface {
	Scores(ctx context.Context, u views.User) (map[int64]int64, error)
}

// Options wires the router to the rest of the process.
type Options struct {
	Runner Runner
	// Checks are pinged by GET /health, keyed by component name.
	Checks map[string]Pinger
	// Scores is nil when no score cache is configured.
	Scores ScoreReader
	Server config.ServerConfig
	// HealthTimeout bounds each health check. Zero means 2s.
	HealthTimeout time.Duration
}

// Handler holds the dependencies shared by all routes.
type Handler struct {
	runner        Runner
	checks        map[string]Pinger
	scores        ScoreReader
	healthTimeout time.Duration
	startTime     time.Time
	logger        zerolog.Logger
}

// NewHandler builds the route handlers.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewHandler(opts Options, logger zerolog.Logger) *Handler {
	timeout := opts.HealthTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Handler{
		runner:        opts.Runner,
		checks:        opts.Checks,
		scores:        opts.Scores,
		healthTimeout: timeout,
		startTime:     time.Now(),
		logger:        logger.With().Str("component", "api").Logger(),
	}
}

// NewRouter returns the operator API.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewRouter(opts Options, logger zerolog.Logger) http.Handler {
	h := NewHandler(opts, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestIDWithLogging(h.logger))
	r.Use(requestMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(opts.Server.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", h.Health)
	r.Get("/health/live", h.Live)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs/latest", h.LatestRun)
		r.With(runRateLimit(opts.Server.RunRateLimit, opts.Server.RunRateWindow)).
			Post("/runs", h.TriggerRun)
		r.Get("/scores/{device}/{user}", h.UserScores)
	})

	return r
}
