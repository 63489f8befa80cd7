// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/menurank/internal/metrics"
	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// Source delivers the raw inputs of a run. Implemented by csvfiles.Dir,
// database.DB and mysql.Extractor.
type Source interface {
	ViewRecords(ctx context.Context, kind views.StreamKind) ([]views.Record, error)
	Reference(ctx context.Context) (*refgraph.Dataset, error)
}

// Sink persists the rankings of a run. Implemented by csvfiles.Writer,
// database.DB, mysql.RankingStore and scorecache.Cache.
type Sink interface {
	Name() string
	WriteRankings(ctx context.Context, rankings []ranking.Ranking) error
}

// MultiSink writes to every sink in order. The first failure stops the
// fan-out; sinks already written keep the new batch.
type MultiSink []Sink

// Name joins the sink names.
func (m MultiSink) Name() string {
	name := ""
	for i, s := range m {
		if i > 0 {
			name += ","
		}
		name += s.Name()
	}
	return name
}

// Names lists the sink names.
func (m MultiSink) Names() []string {
	out := make([]string, len(m))
	for i, s := range m {
		out[i] = s.Name()
	}
	return out
}

// WriteRankings writes rankings to each sink.
func (m MultiSink) WriteRankings(ctx context.Context, rankings []ranking.Ranking) error {
	for _, s := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		err := s.WriteRankings(ctx, rankings)
		metrics.RecordSinkWrite(s.Name(), len(rankings), time.Since(start), err)
		if err != nil {
			return fmt.Errorf("sink %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Clock supplies the reference time of a run.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the pinned time.
func (c FixedClock) Now() time.Time { return time.Time(c) }
