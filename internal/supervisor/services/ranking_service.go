// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/pipeline"
)

// RankingRunner executes one ranking run. Implemented by pipeline.Runner.
type RankingRunner interface {
	Run(ctx context.Context) (*pipeline.Summary, error)
}

// RankingServiceConfig schedules runs.
type RankingServiceConfig struct {
	RunOnStartup bool
	Interval     time.Duration
}

// RankingService runs the pipeline on a fixed interval. A failed run is
// logged and retried on the next tick; the service itself only stops with
// its context.
type RankingService struct {
	runner RankingRunner
	config RankingServiceConfig
	logger zerolog.Logger
}

// NewRankingService creates the service. A non-positive interval means 1h.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewRankingService(runner RankingRunner, cfg RankingServiceConfig, logger zerolog.Logger) *RankingService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &RankingService{
		runner: runner,
		config: cfg,
		logger: logger.With().Str("service", "ranking").Logger(),
	}
}

// Serve implements suture.Service.
func (s *RankingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Msg("Ranking service starting")

	if s.config.RunOnStartup {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Ranking service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *RankingService) run(ctx context.Context) {
	_, err := s.runner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.logger.Info().Msg("Scheduled run skipped, a run is already in progress")
	case ctx.Err() != nil:
	default:
		s.logger.Warn().Err(err).Msg("Scheduled run failed, will retry on next tick")
	}
}

func (s *RankingService) String() string {
	return "ranking-service"
}
