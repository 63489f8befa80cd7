// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/checkpoint"
	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/database"
	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

type fakeExtractor struct {
	mu      sync.Mutex
	logs    map[views.StreamKind][]views.Record
	ref     *refgraph.Dataset
	failOn  views.StreamKind
	afterID map[views.StreamKind]int64
}

func (f *fakeExtractor) ViewRecordsAfter(_ context.Context, kind views.StreamKind, lastID int64) ([]views.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.afterID == nil {
		f.afterID = make(map[views.StreamKind]int64)
	}
	f.afterID[kind] = lastID
	if kind == f.failOn {
		return nil, errors.New("connection reset")
	}
	var out []views.Record
	for _, r := range f.logs[kind] {
		if r.ID > lastID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeExtractor) Reference(context.Context) (*refgraph.Dataset, error) {
	return f.ref, nil
}

func ptr(v int64) *int64 { return &v }

func record(id int64, action string, product *int64) views.Record {
	return views.Record{
		ID:         id,
		Action:     action,
		CategoryID: 7,
		ProductID:  product,
		Device:     "aa:bb",
		UserID:     ptr(1),
		Timestamp:  "2024-05-01 12:00:00",
	}
}

func newSource() *fakeExtractor {
	return &fakeExtractor{
		logs: map[views.StreamKind][]views.Record{
			views.StreamProductViews: {
				record(1, "OPEN", ptr(10)),
				record(2, "CLOSE", ptr(10)),
			},
			views.StreamProductImageViews: {
				record(5, "OPEN", ptr(10)),
			},
			views.StreamCategoryViews: {
				record(3, "OPEN", nil),
				record(4, "CLOSE", nil),
			},
		},
		ref: &refgraph.Dataset{
			Listings:         []refgraph.ListingRow{{ID: 10, MasterID: ptr(100)}},
			UserAllergens:    []refgraph.UserAllergenRow{{UserID: 1, AllergenID: 9}},
			CampaignListings: []int64{10},
		},
	}
}

func setup(t *testing.T) (*database.DB, *checkpoint.Store) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: database.InMemory, MaxMemory: "256MB", Threads: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cp, err := checkpoint.Open(config.CheckpointConfig{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("checkpoint.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = cp.Close() })
	return db, cp
}

func TestSyncer_Incremental(t *testing.T) {
	db, cp := setup(t)
	src := newSource()
	s := NewSyncer(src, db, cp, zerolog.Nop())
	ctx := context.Background()

	report, err := s.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if got := report.Views[views.StreamProductViews]; got.Inserted != 2 || got.ToID != 2 {
		t.Errorf("product_views sync = %+v", got)
	}
	if report.Reference[refgraph.TableListings] != 1 || report.Reference[refgraph.TableCampaignListings] != 1 {
		t.Errorf("reference rows = %v", report.Reference)
	}
	if id, _ := cp.LastID(string(views.StreamCategoryViews)); id != 4 {
		t.Errorf("category_views checkpoint = %d, want 4", id)
	}

	// New rows arrive; only those are pulled.
	src.logs[views.StreamProductViews] = append(src.logs[views.StreamProductViews], record(9, "OPEN", ptr(11)))
	report, err = s.Sync(ctx)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if got := report.Views[views.StreamProductViews]; got.FromID != 2 || got.Fetched != 1 || got.Inserted != 1 || got.ToID != 9 {
		t.Errorf("second product_views sync = %+v", got)
	}
	if got := report.Views[views.StreamCategoryViews]; got.Fetched != 0 || got.ToID != 4 {
		t.Errorf("idle category_views sync = %+v", got)
	}

	recs, err := db.ViewRecords(ctx, views.StreamProductViews)
	if err != nil || len(recs) != 3 {
		t.Fatalf("mirrored product_views = %d rows, %v", len(recs), err)
	}
	ds, err := db.Reference(ctx)
	if err != nil || len(ds.Listings) != 1 || len(ds.UserAllergens) != 1 {
		t.Errorf("mirrored reference = %+v, %v", ds, err)
	}
}

func TestSyncer_FailureKeepsCheckpoint(t *testing.T) {
	db, cp := setup(t)
	src := newSource()
	s := NewSyncer(src, db, cp, zerolog.Nop())

	if _, err := s.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.logs[views.StreamProductImageViews] = append(src.logs[views.StreamProductImageViews], record(6, "CLOSE", ptr(10)))
	src.failOn = views.StreamProductImageViews
	if _, err := s.Sync(context.Background()); err == nil {
		t.Fatal("Sync() should fail when a log cannot be extracted")
	}
	if id, _ := cp.LastID(string(views.StreamProductImageViews)); id != 5 {
		t.Errorf("failed stream checkpoint = %d, want 5", id)
	}

	src.failOn = ""
	report, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("retry Sync() error = %v", err)
	}
	if got := report.Views[views.StreamProductImageViews]; got.Inserted != 1 || got.ToID != 6 {
		t.Errorf("retried sync = %+v", got)
	}
}

func TestSyncer_LostCheckpointResumesFromSnapshot(t *testing.T) {
	db, cp := setup(t)
	src := newSource()

	if _, err := NewSyncer(src, db, cp, zerolog.Nop()).Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	fresh, err := checkpoint.Open(config.CheckpointConfig{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer fresh.Close()

	if _, err := NewSyncer(src, db, fresh, zerolog.Nop()).Sync(context.Background()); err != nil {
		t.Fatalf("Sync() with empty checkpoints error = %v", err)
	}
	if from := src.afterID[views.StreamProductViews]; from != 2 {
		t.Errorf("extraction started after id %d, want 2", from)
	}
}
