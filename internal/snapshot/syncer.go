// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/menurank/internal/checkpoint"
	"github.com/tomtom215/menurank/internal/metrics"
	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// Extractor reads the relational store. Implemented by mysql.Extractor.
type Extractor interface {
	ViewRecordsAfter(ctx context.Context, kind views.StreamKind, lastID int64) ([]views.Record, error)
	Reference(ctx context.Context) (*refgraph.Dataset, error)
}

// Target is the local snapshot store. Implemented by database.DB.
type Target interface {
	AppendViews(ctx context.Context, kind views.StreamKind, records []views.Record) (int, error)
	MaxViewID(ctx context.Context, kind views.StreamKind) (int64, error)
	ReplaceReference(ctx context.Context, ds *refgraph.Dataset) error
}

// Checkpoints stores extraction positions. Implemented by checkpoint.Store.
type Checkpoints interface {
	LastID(stream string) (int64, error)
	Advance(stream string, lastID, rows int64) (checkpoint.Checkpoint, error)
}

// ViewSync describes the rows pulled for one view log.
type ViewSync struct {
	FromID   int64 `json:"from_id"`
	ToID     int64 `json:"to_id"`
	Fetched  int   `json:"fetched"`
	Inserted int   `json:"inserted"`
}

// SyncReport summarizes one sync.
type SyncReport struct {
	StartedAt time.Time                     `json:"started_at"`
	Duration  time.Duration                 `json:"duration_ns"`
	Reference map[string]int                `json:"reference"`
	Views     map[views.StreamKind]ViewSync `json:"views"`
}

// Syncer mirrors the relational store into the local snapshot.
type Syncer struct {
	source      Extractor
	target      Target
	checkpoints Checkpoints
	logger      zerolog.Logger

	// writeMu serializes snapshot writes; extraction still runs in parallel.
	writeMu sync.Mutex
}

// NewSyncer creates a syncer.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewSyncer(source Extractor, target Target, checkpoints Checkpoints, logger zerolog.Logger) *Syncer {
	return &Syncer{
		source:      source,
		target:      target,
		checkpoints: checkpoints,
		logger:      logger.With().Str("component", "snapshot").Logger(),
	}
}

// Sync reloads every reference table and appends new rows of each view log.
// Tables are synced in parallel. The first failure cancels the rest; a view
// log whose append failed keeps its checkpoint, so the next sync retries it.
func (s *Syncer) Sync(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{
		StartedAt: time.Now().UTC(),
		Views:     make(map[views.StreamKind]ViewSync, len(views.StreamKinds())),
	}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		rows, err := s.syncReference(egCtx)
		if err != nil {
			return err
		}
		mu.Lock()
		report.Reference = rows
		mu.Unlock()
		return nil
	})
	for _, kind := range views.StreamKinds() {
		eg.Go(func() error {
			vs, err := s.syncViews(egCtx, kind)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Views[kind] = vs
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot sync: %w", err)
	}

	report.Duration = time.Since(report.StartedAt)
	metrics.RecordSnapshotSuccess()

	event := s.logger.Info().Dur("duration", report.Duration)
	for kind, vs := range report.Views {
		event = event.Int(string(kind), vs.Inserted)
	}
	event.Msg("Snapshot sync complete")
	return report, nil
}

func (s *Syncer) syncReference(ctx context.Context) (map[string]int, error) {
	ds, err := s.source.Reference(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract reference tables: %w", err)
	}

	s.writeMu.Lock()
	err = s.target.ReplaceReference(ctx, ds)
	s.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("load reference tables: %w", err)
	}

	rows := ds.Rows()
	for table, n := range rows {
		metrics.RecordSnapshotTable(table, n)
	}
	return rows, nil
}

// syncViews pulls rows above the stored position. The position is the
// larger of the checkpoint and the highest mirrored id, so a lost
// checkpoint store does not re-import the whole log.
func (s *Syncer) syncViews(ctx context.Context, kind views.StreamKind) (ViewSync, error) {
	stream := string(kind)

	lastID, err := s.checkpoints.LastID(stream)
	if err != nil {
		return ViewSync{}, err
	}
	mirrored, err := s.target.MaxViewID(ctx, kind)
	if err != nil {
		return ViewSync{}, err
	}
	from := max(lastID, mirrored)

	records, err := s.source.ViewRecordsAfter(ctx, kind, from)
	if err != nil {
		return ViewSync{}, fmt.Errorf("extract %s: %w", stream, err)
	}
	vs := ViewSync{FromID: from, ToID: from, Fetched: len(records)}
	if len(records) == 0 {
		return vs, nil
	}

	for i := range records {
		if records[i].ID > vs.ToID {
			vs.ToID = records[i].ID
		}
	}

	s.writeMu.Lock()
	vs.Inserted, err = s.target.AppendViews(ctx, kind, records)
	s.writeMu.Unlock()
	if err != nil {
		return ViewSync{}, fmt.Errorf("append %s: %w", stream, err)
	}

	if _, err := s.checkpoints.Advance(stream, vs.ToID, int64(vs.Inserted)); err != nil {
		return ViewSync{}, err
	}
	metrics.RecordSnapshotTable(stream, vs.Inserted)

	s.logger.Debug().
		Str("stream", stream).
		Int64("from_id", vs.FromID).
		Int64("to_id", vs.ToID).
		Int("inserted", vs.Inserted).
		Msg("View log synced")
	return vs, nil
}
