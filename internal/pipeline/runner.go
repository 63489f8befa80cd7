// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/menurank/internal/logging"
	"github.com/tomtom215/menurank/internal/metrics"
	"github.com/tomtom215/menurank/internal/notify"
	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("ranking run already in progress")

// Options wires a Runner.
type Options struct {
	Source     Source
	SourceName string
	Sinks      []Sink
	// Notifier defaults to notify.Noop.
	Notifier notify.Notifier
	// Clock defaults to SystemClock.
	Clock        Clock
	AbandonedCap time.Duration
	Workers      int
	// Timeout bounds one run. Zero means no bound beyond the caller's context.
	Timeout time.Duration
}

// StreamSummary describes one reconstructed log.
type StreamSummary struct {
	Records     int                `json:"records"`
	Identities  int                `json:"identities"`
	UsersViewed int                `json:"users_viewed"`
	Sessions    views.SessionStats `json:"sessions"`
}

// Summary describes a completed run.
type Summary struct {
	RunID             string                             `json:"run_id"`
	StartedAt         time.Time                          `json:"started_at"`
	Now               time.Time                          `json:"now"`
	Duration          time.Duration                      `json:"duration_ns"`
	Source            string                             `json:"source"`
	Sinks             []string                           `json:"sinks"`
	Streams           map[views.StreamKind]StreamSummary `json:"streams"`
	Reference         map[string]int                     `json:"reference"`
	Users             int                                `json:"users"`
	Rankings          int                                `json:"rankings"`
	AllergyExclusions int                                `json:"allergy_exclusions"`
	Boosted           int                                `json:"boosted"`
	Preferred         int                                `json:"preferred"`
}

// Runner executes ranking runs. A Runner is safe for concurrent use; at
// most one run executes at a time.
type Runner struct {
	source      Source
	sourceName  string
	sink        MultiSink
	notifier    notify.Notifier
	clock       Clock
	reconstruct views.Reconstructor
	aggregator  *ranking.Aggregator
	timeout     time.Duration
	logger      zerolog.Logger

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *Summary
}

// NewRunner validates opts and builds a runner.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewRunner(opts Options, logger zerolog.Logger) (*Runner, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("pipeline source is required")
	}
	if len(opts.Sinks) == 0 {
		return nil, fmt.Errorf("pipeline needs at least one sink")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Workers == 0 {
		opts.Workers = 1
	}

	agg, err := ranking.NewAggregator(ranking.Config{Workers: opts.Workers}, logger)
	if err != nil {
		return nil, err
	}
	logger = logger.With().Str("component", "pipeline").Logger()

	return &Runner{
		source:      opts.Source,
		sourceName:  opts.SourceName,
		sink:        MultiSink(opts.Sinks),
		notifier:    opts.Notifier,
		clock:       opts.Clock,
		reconstruct: views.Reconstructor{AbandonedCap: opts.AbandonedCap},
		aggregator:  agg,
		timeout:     opts.Timeout,
		logger:      logger,
	}, nil
}

// Last returns the summary of the latest successful run, nil before one.
func (r *Runner) Last() *Summary {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	return r.last
}

// Run loads every input, ranks and writes the sinks. Any load, parse or
// aggregation failure aborts the run before a sink is touched.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if !r.runMu.TryLock() {
		metrics.RecordRunSkipped()
		return nil, ErrRunInProgress
	}
	defer r.runMu.Unlock()

	metrics.TrackRun(true)
	defer metrics.TrackRun(false)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	summary := &Summary{
		RunID:     logging.NewRunID(),
		StartedAt: time.Now().UTC(),
		Now:       r.clock.Now().UTC(),
		Source:    r.sourceName,
		Sinks:     r.sink.Names(),
		Streams:   make(map[views.StreamKind]StreamSummary, len(views.StreamKinds())),
	}
	ctx = logging.ContextWithRunID(logging.ContextWithLogger(ctx, r.logger), summary.RunID)
	log := logging.Ctx(ctx)

	log.Info().
		Str("source", r.sourceName).
		Strs("sinks", summary.Sinks).
		Time("now", summary.Now).
		Msg("Ranking run started")

	rankings, err := r.execute(ctx, summary)
	summary.Duration = time.Since(summary.StartedAt)
	metrics.RecordRun(summary.Duration, len(rankings), err)
	if err != nil {
		log.Error().Err(err).Dur("duration", summary.Duration).Msg("Ranking run failed")
		return nil, err
	}

	if err := r.notifier.RunCompleted(ctx, summary.event()); err != nil {
		log.Warn().Err(err).Msg("Run notification failed")
	}

	r.lastMu.Lock()
	r.last = summary
	r.lastMu.Unlock()

	log.Info().
		Int("users", summary.Users).
		Int("rankings", summary.Rankings).
		Int("allergy_exclusions", summary.AllergyExclusions).
		Int("boosted", summary.Boosted).
		Dur("duration", summary.Duration).
		Msg("Ranking run complete")
	return summary, nil
}

func (r *Runner) execute(ctx context.Context, summary *Summary) ([]ranking.Ranking, error) {
	kinds := views.StreamKinds()
	results := make([]*views.StreamResult, len(kinds))
	loaded := make([]int, len(kinds))
	var graph *refgraph.Graph

	eg, egCtx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		eg.Go(func() error {
			records, err := r.source.ViewRecords(egCtx, kind)
			if err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			res, err := r.reconstruct.Process(kind, records, summary.Now)
			if err != nil {
				return fmt.Errorf("process %s: %w", kind, err)
			}
			results[i], loaded[i] = res, len(records)
			return nil
		})
	}
	eg.Go(func() error {
		ds, err := r.source.Reference(egCtx)
		if err != nil {
			return fmt.Errorf("load reference data: %w", err)
		}
		summary.Reference = ds.Rows()
		graph = refgraph.Build(ds)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	tables := ranking.Tables{}
	for i, res := range results {
		switch res.Kind {
		case views.StreamProductViews:
			tables.ProductViews = res.Views
		case views.StreamProductImageViews:
			tables.ImageViews = res.Views
		case views.StreamCategoryViews:
			tables.CategoryViews = res.Views
		}
		summary.Streams[res.Kind] = StreamSummary{
			Records:     loaded[i],
			Identities:  res.Identities,
			UsersViewed: res.UsersViewed,
			Sessions:    res.Stats,
		}
		metrics.RecordSessions(string(res.Kind), metrics.SessionCounts{
			Records:           loaded[i],
			Completed:         res.Stats.Completed,
			Abandoned:         res.Stats.Abandoned,
			Dangling:          res.Stats.Dangling,
			Orphans:           res.Stats.Orphans,
			NegativeDurations: res.Stats.NegativeDurations,
		})
	}

	rankings, stats, err := r.aggregator.Rank(ctx, tables, graph)
	if err != nil {
		return nil, err
	}
	summary.Users = stats.Users
	summary.Rankings = stats.Rankings
	summary.AllergyExclusions = stats.AllergyExclusions
	summary.Boosted = stats.Boosted
	summary.Preferred = stats.Preferred
	metrics.RecordAdjustments(stats.AllergyExclusions, stats.Boosted, stats.Preferred)

	if err := r.sink.WriteRankings(ctx, rankings); err != nil {
		return nil, fmt.Errorf("write rankings: %w", err)
	}
	return rankings, nil
}

func (s *Summary) event() notify.RunCompleted {
	return notify.RunCompleted{
		RunID:             s.RunID,
		Source:            s.Source,
		Sinks:             s.Sinks,
		StartedAt:         s.StartedAt,
		Now:               s.Now,
		DurationMS:        s.Duration.Milliseconds(),
		Users:             s.Users,
		Rankings:          s.Rankings,
		AllergyExclusions: s.AllergyExclusions,
		Boosted:           s.Boosted,
	}
}
