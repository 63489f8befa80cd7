// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package csvfiles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

var referenceFixture = map[string]string{
	FileListings:            "id,id_product_master,highlight\n10,100,0\n11,,1\n",
	FileProductDetails:      "id,alcohol,gluten_free,spicy,sugar,vegan,vegetarian,halal,casherut\n100,0,0,1,0,1,0,0,0\n101,0,0,0,0,0,0,0,1\n",
	FileProductIngredients:  "id_product,id_ingredient\n100,1000\n",
	FileListingIngredients:  "id_product_restaurant,id_ingredient\n11,1001\n",
	FileIngredientAllergens: "id_ingredient,id_allergen\n1000,7\n",
	FileUserAllergens:       "id_user,id_allergen\n42,7\n",
	FileUserPreferences:     "id,alcohol,gluten_free,spicy,sugar,vegan,vegetarian,halal,casherut\n42,0,0,0,0,0,1,0,0\n",
	FileUserFavorites:       "id_user,id_product_restaurant\n42,11\n",
	FileCampaignListings:    "id_product_restaurant\n10\n",
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestDir(t *testing.T, files map[string]string) *Dir {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, files)
	d, err := NewDir(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDir() error = %v", err)
	}
	return d
}

func TestNewDir_Missing(t *testing.T) {
	if _, err := NewDir(filepath.Join(t.TempDir(), "nope"), zerolog.Nop()); err == nil {
		t.Error("NewDir() on missing directory should fail")
	}
}

func TestViewRecords_ProductStream(t *testing.T) {
	d := newTestDir(t, map[string]string{
		"product_views.csv": "id,action,category_id,product_id,mac_address,user_id,date_insert\n" +
			"1,OPEN,3,10,aa:bb,,2024-05-01 12:00:00\n" +
			"2,CLOSE,3,10,aa:bb,42,2024-05-01 12:00:17\n",
	})

	recs, err := d.ViewRecords(context.Background(), views.StreamProductViews)
	if err != nil {
		t.Fatalf("ViewRecords() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].UserID != nil {
		t.Errorf("empty user_id should be nil, got %d", *recs[0].UserID)
	}
	if recs[1].UserID == nil || *recs[1].UserID != 42 {
		t.Errorf("UserID = %v, want 42", recs[1].UserID)
	}
	if recs[1].ID != 2 || recs[1].Action != "CLOSE" || *recs[1].ProductID != 10 || recs[1].Device != "aa:bb" {
		t.Errorf("record = %+v", recs[1])
	}

	// The raw records feed straight into reconstruction.
	res, err := views.Reconstructor{}.Process(views.StreamProductViews, recs, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	u := views.User{Device: "aa:bb", ID: views.ResolvedID(42)}
	if got := res.Views.Of(u)[views.ProductScope(3, 10)].Seconds(); got != 17 {
		t.Errorf("duration = %vs, want 17s", got)
	}
}

func TestViewRecords_CategoryStreamHasNoProduct(t *testing.T) {
	d := newTestDir(t, map[string]string{
		"category_views.csv": "action,category_id,mac_address,user_id,date_insert\nOPEN,3,aa:bb,,2024-05-01 12:00:00\n",
	})

	recs, err := d.ViewRecords(context.Background(), views.StreamCategoryViews)
	if err != nil {
		t.Fatalf("ViewRecords() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ProductID != nil || recs[0].CategoryID != 3 {
		t.Errorf("records = %+v", recs)
	}
}

func TestViewRecords_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing product column", "action,category_id,mac_address,user_id,date_insert\n", "product_id"},
		{"bad category", "action,category_id,product_id,mac_address,user_id,date_insert\nOPEN,x,1,aa,,2024-05-01 12:00:00\n", "line 2"},
		{"empty file", "", "header expected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDir(t, map[string]string{"product_image_views.csv": tt.content})
			_, err := d.ViewRecords(context.Background(), views.StreamProductImageViews)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ViewRecords() error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	d := newTestDir(t, nil)
	if _, err := d.ViewRecords(context.Background(), views.StreamProductViews); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestReference(t *testing.T) {
	d := newTestDir(t, referenceFixture)

	ds, err := d.Reference(context.Background())
	if err != nil {
		t.Fatalf("Reference() error = %v", err)
	}

	if len(ds.Listings) != 2 || ds.Listings[0].MasterID == nil || *ds.Listings[0].MasterID != 100 {
		t.Errorf("Listings = %+v", ds.Listings)
	}
	if ds.Listings[1].MasterID != nil || !ds.Listings[1].Highlight {
		t.Errorf("standalone listing = %+v", ds.Listings[1])
	}
	if got := refgraph.InferVariant(ds.ProductDetails[0].Flags); got != refgraph.VariantSpicy {
		t.Errorf("variant of 100 = %v, want spicy", got)
	}
	if !ds.ProductDetails[1].Flags.Kosher {
		t.Error("casherut column should map to Kosher")
	}
	if !ds.UserPreferences[0].Flags.Vegetarian || ds.UserPreferences[0].UserID != 42 {
		t.Errorf("UserPreferences = %+v", ds.UserPreferences)
	}
	if len(ds.CampaignListings) != 1 || ds.CampaignListings[0] != 10 {
		t.Errorf("CampaignListings = %v", ds.CampaignListings)
	}

	g := refgraph.Build(ds)
	info := g.UserInfo(42)
	if !info.Allergens.Has(7) || !info.Favorites.Has(11) {
		t.Errorf("UserInfo = %+v", info)
	}
}

func TestReference_IDProductAlias(t *testing.T) {
	files := make(map[string]string, len(referenceFixture))
	for k, v := range referenceFixture {
		files[k] = v
	}
	files[FileListings] = "highlight,id_product,id\n0,100,10\n"

	ds, err := newTestDir(t, files).Reference(context.Background())
	if err != nil {
		t.Fatalf("Reference() error = %v", err)
	}
	if ds.Listings[0].ID != 10 || *ds.Listings[0].MasterID != 100 {
		t.Errorf("Listings = %+v", ds.Listings)
	}
}

func TestReference_MissingFile(t *testing.T) {
	files := make(map[string]string, len(referenceFixture))
	for k, v := range referenceFixture {
		if k != FileUserFavorites {
			files[k] = v
		}
	}
	_, err := newTestDir(t, files).Reference(context.Background())
	if err == nil || !strings.Contains(err.Error(), FileUserFavorites) {
		t.Errorf("Reference() error = %v, want missing %s", err, FileUserFavorites)
	}
}

func TestWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "rankings.csv")
	w := NewWriter(path, zerolog.Nop())
	if w.Name() != "csv" {
		t.Errorf("Name() = %q", w.Name())
	}

	rankings := []ranking.Ranking{
		{User: views.User{Device: "aa:bb"}, ListingID: 10, CategoryID: 3, Score: 69},
		{User: views.User{Device: "aa:bb", ID: views.ResolvedID(42)}, ListingID: 11, CategoryID: 3, Score: 6000},
	}
	if err := w.WriteRankings(context.Background(), rankings); err != nil {
		t.Fatalf("WriteRankings() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "mac_address,user_id,product_id,rank\naa:bb,,10,69\naa:bb,42,11,6000\n"
	if string(got) != want {
		t.Errorf("file =\n%s\nwant\n%s", got, want)
	}

	// A second write replaces the file and leaves no temp files behind.
	if err := w.WriteRankings(context.Background(), nil); err != nil {
		t.Fatalf("WriteRankings() error = %v", err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
	got, _ = os.ReadFile(path)
	if string(got) != "mac_address,user_id,product_id,rank\n" {
		t.Errorf("empty write = %q", got)
	}
}

func TestEncode_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Encode(ctx, &strings.Builder{}, []ranking.Ranking{{ListingID: 1}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Encode() error = %v, want context.Canceled", err)
	}
}
