// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package csvfiles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// Reference file names inside a snapshot directory.
const (
	FileListings            = "product_restaurant.csv"
	FileProductDetails      = "product_detail.csv"
	FileProductIngredients  = "product_ingredient.csv"
	FileListingIngredients  = "product_restaurant_ingredient.csv"
	FileIngredientAllergens = "ingredient_allergen.csv"
	FileUserAllergens       = "user_allergen.csv"
	FileUserPreferences     = "user_preferences.csv"
	FileUserFavorites       = "user_favorite_product.csv"
	FileCampaignListings    = "advisor_campaign_product.csv"
)

// ViewFile returns the file name of an interaction log.
func ViewFile(kind views.StreamKind) string {
	return string(kind) + ".csv"
}

var flagColumns = [8][]string{
	{"alcohol"},
	{"gluten_free"},
	{"spicy"},
	{"sugar"},
	{"vegan"},
	{"vegetarian"},
	{"halal"},
	{"casherut", "kosher"},
}

// Dir reads a directory of CSV snapshots.
type Dir struct {
	path   string
	logger zerolog.Logger
}

// NewDir returns a source rooted at path. The directory must exist.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func NewDir(path string, logger zerolog.Logger) (*Dir, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("snapshot directory: %s is not a directory", path)
	}
	return &Dir{
		path:   path,
		logger: logger.With().Str("component", "csvfiles").Str("dir", path).Logger(),
	}, nil
}

// Path returns the snapshot directory.
func (d *Dir) Path() string { return d.path }

// readFile opens name and hands each row to fn.
func (d *Dir) readFile(ctx context.Context, name string, required [][]string, fn func(*table) error) error {
	f, err := os.Open(filepath.Join(d.path, name))
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	t, err := newTable(name, f)
	if err != nil {
		return err
	}
	if err := t.require(required...); err != nil {
		return err
	}
	for {
		ok, err := t.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if t.line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := t.err(); err != nil {
			return err
		}
	}
}

// ViewRecords reads one interaction log. Values are passed through raw and
// validated by the views package.
func (d *Dir) ViewRecords(ctx context.Context, kind views.StreamKind) ([]views.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown stream %q", kind)
	}
	required := [][]string{{"action"}, {"category_id"}, {"mac_address"}, {"user_id"}, {"date_insert"}}
	if kind.RequiresProduct() {
		required = append(required, []string{"product_id"})
	}

	var out []views.Record
	err := d.readFile(ctx, ViewFile(kind), required, func(t *table) error {
		rec := views.Record{
			Action:     t.cell("action"),
			CategoryID: t.integer("category_id"),
			Device:     t.cell("mac_address"),
			UserID:     t.optInteger("user_id"),
			Timestamp:  t.cell("date_insert"),
		}
		if t.cell("id") != "" {
			rec.ID = t.integer("id")
		}
		if kind.RequiresProduct() {
			rec.ProductID = t.optInteger("product_id")
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Debug().Str("stream", string(kind)).Int("records", len(out)).Msg("Loaded view log")
	return out, nil
}

// Reference reads every reference file. A missing file is an error.
func (d *Dir) Reference(ctx context.Context) (*refgraph.Dataset, error) {
	ds := &refgraph.Dataset{}

	steps := []struct {
		file     string
		required [][]string
		row      func(*table)
	}{
		{FileListings, [][]string{{"id"}, {"id_product_master", "id_product"}, {"highlight"}}, func(t *table) {
			ds.Listings = append(ds.Listings, refgraph.ListingRow{
				ID:        t.integer("id"),
				MasterID:  t.optInteger("id_product_master", "id_product"),
				Highlight: t.flag("highlight"),
			})
		}},
		{FileProductDetails, append([][]string{{"product_id", "id"}}, flagColumns[:]...), func(t *table) {
			ds.ProductDetails = append(ds.ProductDetails, refgraph.ProductDetailRow{
				ProductID: t.integer("product_id", "id"),
				Flags:     readFlags(t),
			})
		}},
		{FileProductIngredients, [][]string{{"id_product"}, {"id_ingredient"}}, func(t *table) {
			ds.ProductIngredients = append(ds.ProductIngredients, refgraph.ProductIngredientRow{
				ProductID:    t.integer("id_product"),
				IngredientID: t.integer("id_ingredient"),
			})
		}},
		{FileListingIngredients, [][]string{{"id_product_restaurant"}, {"id_ingredient"}}, func(t *table) {
			ds.ListingIngredients = append(ds.ListingIngredients, refgraph.ListingIngredientRow{
				ListingID:    t.integer("id_product_restaurant"),
				IngredientID: t.integer("id_ingredient"),
			})
		}},
		{FileIngredientAllergens, [][]string{{"id_ingredient"}, {"id_allergen"}}, func(t *table) {
			ds.IngredientAllergens = append(ds.IngredientAllergens, refgraph.IngredientAllergenRow{
				IngredientID: t.integer("id_ingredient"),
				AllergenID:   t.integer("id_allergen"),
			})
		}},
		{FileUserAllergens, [][]string{{"id_user"}, {"id_allergen"}}, func(t *table) {
			ds.UserAllergens = append(ds.UserAllergens, refgraph.UserAllergenRow{
				UserID:     t.integer("id_user"),
				AllergenID: t.integer("id_allergen"),
			})
		}},
		{FileUserPreferences, append([][]string{{"id", "id_user"}}, flagColumns[:]...), func(t *table) {
			ds.UserPreferences = append(ds.UserPreferences, refgraph.UserPreferenceRow{
				UserID: t.integer("id", "id_user"),
				Flags:  readFlags(t),
			})
		}},
		{FileUserFavorites, [][]string{{"id_user"}, {"id_product_restaurant"}}, func(t *table) {
			ds.UserFavorites = append(ds.UserFavorites, refgraph.UserFavoriteRow{
				UserID:    t.integer("id_user"),
				ListingID: t.integer("id_product_restaurant"),
			})
		}},
		{FileCampaignListings, [][]string{{"id_product_restaurant"}}, func(t *table) {
			ds.CampaignListings = append(ds.CampaignListings, t.integer("id_product_restaurant"))
		}},
	}

	for _, s := range steps {
		err := d.readFile(ctx, s.file, s.required, func(t *table) error {
			s.row(t)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	d.logger.Debug().Interface("rows", ds.Rows()).Msg("Loaded reference files")
	return ds, nil
}

func readFlags(t *table) refgraph.DietaryFlags {
	return refgraph.DietaryFlags{
		Alcohol:    t.flag(flagColumns[0]...),
		GlutenFree: t.flag(flagColumns[1]...),
		Spicy:      t.flag(flagColumns[2]...),
		Sugar:      t.flag(flagColumns[3]...),
		Vegan:      t.flag(flagColumns[4]...),
		Vegetarian: t.flag(flagColumns[5]...),
		Halal:      t.flag(flagColumns[6]...),
		Kosher:     t.flag(flagColumns[7]...),
	}
}
