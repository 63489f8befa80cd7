// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/snapshot"
)

// Syncer mirrors the relational store. Implemented by snapshot.Syncer.
type Syncer interface {
	Sync(ctx context.Context) (*snapshot.SyncReport, error)
}

// SnapshotService syncs the local snapshot on an interval.
type SnapshotService struct {
	syncer   Syncer
	interval time.Duration
	logger   zerolog.Logger
}

// NewSnapshotService creates the service. A non-positive interval means 15m.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewSnapshotService(syncer Syncer, interval time.Duration, logger zerolog.Logger) *SnapshotService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SnapshotService{
		syncer:   syncer,
		interval: interval,
		logger:   logger.With().Str("service", "snapshot").Logger(),
	}
}

// Serve implements suture.Service. The first sync runs one interval after
// start; callers sync once synchronously before starting the tree.
func (s *SnapshotService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.syncer.Sync(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("Snapshot sync failed, will retry on next tick")
			}
		}
	}
}

func (s *SnapshotService) String() string {
	return "snapshot-service"
}
