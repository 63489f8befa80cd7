// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/menurank/internal/database/query"
	"github.com/tomtom215/menurank/internal/metrics"
	"github.com/tomtom215/menurank/internal/refgraph"
)

// Reference loads every mirrored reference table.
func (db *DB) Reference(ctx context.Context) (ds *refgraph.Dataset, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("duckdb", "select", "reference", time.Since(start), err) }()

	ds = &refgraph.Dataset{}

	err = db.scan(ctx, "SELECT id, id_product_master, highlight FROM "+refgraph.TableListings+" ORDER BY rowid",
		func(rows *sql.Rows) error {
			var (
				row    refgraph.ListingRow
				master sql.NullInt64
			)
			if err := rows.Scan(&row.ID, &master, &row.Highlight); err != nil {
				return err
			}
			row.MasterID = fromNull(master)
			ds.Listings = append(ds.Listings, row)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = db.scan(ctx, "SELECT product_id, "+flagColumns+" FROM "+refgraph.TableProductDetails+" ORDER BY rowid",
		func(rows *sql.Rows) error {
			var row refgraph.ProductDetailRow
			if err := rows.Scan(append([]any{&row.ProductID}, flagDest(&row.Flags)...)...); err != nil {
				return err
			}
			ds.ProductDetails = append(ds.ProductDetails, row)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = db.scanPairs(ctx, refgraph.TableProductIngredients, "id_product", "id_ingredient", func(a, b int64) {
		ds.ProductIngredients = append(ds.ProductIngredients, refgraph.ProductIngredientRow{ProductID: a, IngredientID: b})
	})
	if err != nil {
		return nil, err
	}
	err = db.scanPairs(ctx, refgraph.TableListingIngredients, "id_product_restaurant", "id_ingredient", func(a, b int64) {
		ds.ListingIngredients = append(ds.ListingIngredients, refgraph.ListingIngredientRow{ListingID: a, IngredientID: b})
	})
	if err != nil {
		return nil, err
	}
	err = db.scanPairs(ctx, refgraph.TableIngredientAllergens, "id_ingredient", "id_allergen", func(a, b int64) {
		ds.IngredientAllergens = append(ds.IngredientAllergens, refgraph.IngredientAllergenRow{IngredientID: a, AllergenID: b})
	})
	if err != nil {
		return nil, err
	}
	err = db.scanPairs(ctx, refgraph.TableUserAllergens, "id_user", "id_allergen", func(a, b int64) {
		ds.UserAllergens = append(ds.UserAllergens, refgraph.UserAllergenRow{UserID: a, AllergenID: b})
	})
	if err != nil {
		return nil, err
	}

	err = db.scan(ctx, "SELECT id, "+flagColumns+" FROM "+refgraph.TableUserPreferences+" ORDER BY rowid",
		func(rows *sql.Rows) error {
			var row refgraph.UserPreferenceRow
			if err := rows.Scan(append([]any{&row.UserID}, flagDest(&row.Flags)...)...); err != nil {
				return err
			}
			ds.UserPreferences = append(ds.UserPreferences, row)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = db.scanPairs(ctx, refgraph.TableUserFavorites, "id_user", "id_product_restaurant", func(a, b int64) {
		ds.UserFavorites = append(ds.UserFavorites, refgraph.UserFavoriteRow{UserID: a, ListingID: b})
	})
	if err != nil {
		return nil, err
	}

	err = db.scan(ctx, "SELECT id_product_restaurant FROM "+refgraph.TableCampaignListings+" ORDER BY rowid",
		func(rows *sql.Rows) error {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ds.CampaignListings = append(ds.CampaignListings, id)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

func (db *DB) scan(ctx context.Context, text string, fn func(*sql.Rows) error) error {
	rows, err := db.conn.QueryContext(ctx, text)
	if err != nil {
		return fmt.Errorf("query %q: %w", text, err)
	}
	defer closeWithLog(rows, db.logger, "rows")

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("scan %q: %w", text, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %q: %w", text, err)
	}
	return nil
}

func (db *DB) scanPairs(ctx context.Context, table, a, b string, fn func(a, b int64)) error {
	// #nosec G202 -- identifiers are package constants
	return db.scan(ctx, "SELECT "+a+", "+b+" FROM "+table+" ORDER BY rowid", func(rows *sql.Rows) error {
		var x, y int64
		if err := rows.Scan(&x, &y); err != nil {
			return err
		}
		fn(x, y)
		return nil
	})
}

func flagDest(f *refgraph.DietaryFlags) []any {
	return []any{&f.Alcohol, &f.GlutenFree, &f.Spicy, &f.Sugar, &f.Vegan, &f.Vegetarian, &f.Halal, &f.Kosher}
}

func flagArgs(f refgraph.DietaryFlags) []any {
	return []any{f.Alcohol, f.GlutenFree, f.Spicy, f.Sugar, f.Vegan, f.Vegetarian, f.Halal, f.Kosher}
}

// ReplaceReference swaps every reference table for the given dataset in a
// single transaction. Readers see either the old or the new snapshot.
func (db *DB) ReplaceReference(ctx context.Context, ds *refgraph.Dataset) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("duckdb", "replace", "reference", time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, db.logger, err)
		}
	}()

	for _, table := range refgraph.Tables() {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	inserts := []struct {
		table string
		stmt  string
		n     int
		args  func(i int) []any
	}{
		{refgraph.TableListings, query.Insert(refgraph.TableListings).Arity(3).String(), len(ds.Listings), func(i int) []any {
			r := ds.Listings[i]
			return []any{r.ID, toNull(r.MasterID), r.Highlight}
		}},
		{refgraph.TableProductDetails, query.Insert(refgraph.TableProductDetails).Arity(9).String(), len(ds.ProductDetails), func(i int) []any {
			r := ds.ProductDetails[i]
			return append([]any{r.ProductID}, flagArgs(r.Flags)...)
		}},
		{refgraph.TableProductIngredients, query.Insert(refgraph.TableProductIngredients).Arity(2).String(), len(ds.ProductIngredients), func(i int) []any {
			r := ds.ProductIngredients[i]
			return []any{r.ProductID, r.IngredientID}
		}},
		{refgraph.TableListingIngredients, query.Insert(refgraph.TableListingIngredients).Arity(2).String(), len(ds.ListingIngredients), func(i int) []any {
			r := ds.ListingIngredients[i]
			return []any{r.ListingID, r.IngredientID}
		}},
		{refgraph.TableIngredientAllergens, query.Insert(refgraph.TableIngredientAllergens).Arity(2).String(), len(ds.IngredientAllergens), func(i int) []any {
			r := ds.IngredientAllergens[i]
			return []any{r.IngredientID, r.AllergenID}
		}},
		{refgraph.TableUserAllergens, query.Insert(refgraph.TableUserAllergens).Arity(2).String(), len(ds.UserAllergens), func(i int) []any {
			r := ds.UserAllergens[i]
			return []any{r.UserID, r.AllergenID}
		}},
		{refgraph.TableUserPreferences, query.Insert(refgraph.TableUserPreferences).Arity(9).String(), len(ds.UserPreferences), func(i int) []any {
			r := ds.UserPreferences[i]
			return append([]any{r.UserID}, flagArgs(r.Flags)...)
		}},
		{refgraph.TableUserFavorites, query.Insert(refgraph.TableUserFavorites).Arity(2).String(), len(ds.UserFavorites), func(i int) []any {
			r := ds.UserFavorites[i]
			return []any{r.UserID, r.ListingID}
		}},
		{refgraph.TableCampaignListings, query.Insert(refgraph.TableCampaignListings).Arity(1).String(), len(ds.CampaignListings), func(i int) []any {
			return []any{ds.CampaignListings[i]}
		}},
	}

	for _, ins := range inserts {
		if ins.n == 0 {
			continue
		}
		if err = execBatch(ctx, tx, ins.stmt, ins.n, ins.args); err != nil {
			return fmt.Errorf("load %s: %w", ins.table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// execBatch runs one prepared statement n times inside tx.
func execBatch(ctx context.Context, tx *sql.Tx, text string, n int, args func(i int) []any) error {
	stmt, err := tx.PrepareContext(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeQuietly(stmt)

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
