// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package database

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/config"
	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// testDBSemaphore serializes DuckDB tests; concurrent CGO instances are
// memory hungry on CI runners.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{Path: InMemory, MaxMemory: "256MB", Threads: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ptr(v int64) *int64 { return &v }

func TestNew_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "menurank.duckdb")
	testDBSemaphore <- struct{}{}
	defer func() { <-testDBSemaphore }()

	db, err := New(&config.DatabaseConfig{Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	// Reopening keeps the schema.
	db, err = New(&config.DatabaseConfig{Path: path}, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	_ = db.Close()
}

func TestAppendViews_RoundTripAndIdempotence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	records := []views.Record{
		{ID: 2, Action: "CLOSE", CategoryID: 3, ProductID: ptr(10), Device: "aa", UserID: ptr(42), Timestamp: "2024-05-01 12:00:17"},
		{ID: 1, Action: "OPEN", CategoryID: 3, ProductID: ptr(10), Device: "aa", Timestamp: "2024-05-01 12:00:00"},
	}

	n, err := db.AppendViews(ctx, views.StreamProductViews, records)
	if err != nil {
		t.Fatalf("AppendViews() error = %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	// Replaying overlapping ids inserts only the new row.
	n, err = db.AppendViews(ctx, views.StreamProductViews, append(records, views.Record{
		ID: 3, Action: "OPEN", CategoryID: 4, ProductID: ptr(11), Device: "bb", Timestamp: "2024-05-01 12:01:00",
	}))
	if err != nil {
		t.Fatalf("AppendViews() replay error = %v", err)
	}
	if n != 1 {
		t.Errorf("replay inserted = %d, want 1", n)
	}

	got, err := db.ViewRecords(ctx, views.StreamProductViews)
	if err != nil {
		t.Fatalf("ViewRecords() error = %v", err)
	}
	if len(got) != 3 || got[0].ID != 1 || got[2].ID != 3 {
		t.Fatalf("ViewRecords() = %+v, want ids 1..3 in order", got)
	}
	if got[0].UserID != nil || got[1].UserID == nil || *got[1].UserID != 42 {
		t.Errorf("user ids not preserved: %+v", got[:2])
	}
	if got[0].Timestamp != "2024-05-01 12:00:00" {
		t.Errorf("Timestamp = %q", got[0].Timestamp)
	}

	maxID, err := db.MaxViewID(ctx, views.StreamProductViews)
	if err != nil || maxID != 3 {
		t.Errorf("MaxViewID() = %d, %v, want 3", maxID, err)
	}
	maxID, err = db.MaxViewID(ctx, views.StreamCategoryViews)
	if err != nil || maxID != 0 {
		t.Errorf("MaxViewID(empty) = %d, %v, want 0", maxID, err)
	}
}

func TestAppendViews_CategoryStream(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.AppendViews(ctx, views.StreamCategoryViews, []views.Record{
		{ID: 1, Action: "OPEN", CategoryID: 3, ProductID: ptr(99), Device: "aa", Timestamp: "2024-05-01 12:00:00"},
	})
	if err != nil {
		t.Fatalf("AppendViews() error = %v", err)
	}
	got, err := db.ViewRecords(ctx, views.StreamCategoryViews)
	if err != nil {
		t.Fatalf("ViewRecords() error = %v", err)
	}
	if len(got) != 1 || got[0].ProductID != nil {
		t.Errorf("category record = %+v, want no product", got)
	}
}

func TestViewRecords_UnknownStream(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.ViewRecords(context.Background(), "clicks"); !errors.Is(err, ErrUnknownStream) {
		t.Errorf("error = %v, want ErrUnknownStream", err)
	}
}

func TestReplaceReference(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ds := &refgraph.Dataset{
		Listings: []refgraph.ListingRow{
			{ID: 10, MasterID: ptr(100)},
			{ID: 11, Highlight: true},
		},
		ProductDetails:      []refgraph.ProductDetailRow{{ProductID: 100, Flags: refgraph.DietaryFlags{Vegan: true, Kosher: true}}},
		ProductIngredients:  []refgraph.ProductIngredientRow{{ProductID: 100, IngredientID: 1000}},
		ListingIngredients:  []refgraph.ListingIngredientRow{{ListingID: 11, IngredientID: 1001}},
		IngredientAllergens: []refgraph.IngredientAllergenRow{{IngredientID: 1000, AllergenID: 7}},
		UserAllergens:       []refgraph.UserAllergenRow{{UserID: 42, AllergenID: 7}},
		UserPreferences:     []refgraph.UserPreferenceRow{{UserID: 42, Flags: refgraph.DietaryFlags{Spicy: true}}},
		UserFavorites:       []refgraph.UserFavoriteRow{{UserID: 42, ListingID: 11}},
		CampaignListings:    []int64{10},
	}
	if err := db.ReplaceReference(ctx, ds); err != nil {
		t.Fatalf("ReplaceReference() error = %v", err)
	}

	got, err := db.Reference(ctx)
	if err != nil {
		t.Fatalf("Reference() error = %v", err)
	}
	if !mapsEqual(got.Rows(), ds.Rows()) {
		t.Errorf("Rows() = %v, want %v", got.Rows(), ds.Rows())
	}
	if got.Listings[1].MasterID != nil || !got.Listings[1].Highlight {
		t.Errorf("standalone listing = %+v", got.Listings[1])
	}
	if got.ProductDetails[0].Flags != ds.ProductDetails[0].Flags {
		t.Errorf("flags = %+v, want %+v", got.ProductDetails[0].Flags, ds.ProductDetails[0].Flags)
	}

	// A second replace drops the old rows.
	if err := db.ReplaceReference(ctx, &refgraph.Dataset{CampaignListings: []int64{12}}); err != nil {
		t.Fatalf("ReplaceReference() error = %v", err)
	}
	got, err = db.Reference(ctx)
	if err != nil {
		t.Fatalf("Reference() error = %v", err)
	}
	if len(got.Listings) != 0 || !slices.Equal(got.CampaignListings, []int64{12}) {
		t.Errorf("after replace: listings=%d campaign=%v", len(got.Listings), got.CampaignListings)
	}
}

func mapsEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func TestWriteRankings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if db.Name() != "duckdb" {
		t.Errorf("Name() = %q", db.Name())
	}

	batch := []ranking.Ranking{
		{User: views.User{Device: "aa"}, ListingID: 10, CategoryID: 3, Score: 69},
		{User: views.User{Device: "aa", ID: views.ResolvedID(42)}, ListingID: 10, CategoryID: 3, Score: 6000},
	}
	if err := db.WriteRankings(ctx, batch); err != nil {
		t.Fatalf("WriteRankings() error = %v", err)
	}
	got, err := db.Rankings(ctx)
	if err != nil {
		t.Fatalf("Rankings() error = %v", err)
	}
	if !slices.Equal(got, batch) {
		t.Errorf("Rankings() = %+v, want %+v", got, batch)
	}

	if err := db.WriteRankings(ctx, batch[:1]); err != nil {
		t.Fatalf("WriteRankings() error = %v", err)
	}
	got, _ = db.Rankings(ctx)
	if len(got) != 1 {
		t.Errorf("second write left %d rows, want 1", len(got))
	}
}
