// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// Reference queries skip soft-deleted rows. users_preferences has no
// deleted column.
var pairQueries = map[string]string{
	refgraph.TableProductIngredients:  "SELECT id_product AS a, id_ingredient AS b FROM product_ingredient WHERE deleted = 0",
	refgraph.TableListingIngredients:  "SELECT id_product_restaurant AS a, id_ingredient AS b FROM product_restaurant_ingredient WHERE deleted = 0",
	refgraph.TableIngredientAllergens: "SELECT id_ingredient AS a, id_allergen AS b FROM ingredient_allergen WHERE deleted = 0",
	refgraph.TableUserAllergens:       "SELECT id_user AS a, id_allergen AS b FROM users_allergen WHERE deleted = 0",
	refgraph.TableUserFavorites:       "SELECT id_user AS a, id_product_restaurant AS b FROM users_product_favorite WHERE deleted = 0",
}

const (
	listingQuery  = "SELECT id, id_product, highlight FROM product_restaurant WHERE deleted = 0 ORDER BY id"
	detailQuery   = "SELECT id, alcohol, gluten_free, spicy, sugar, vegan, vegetarian, halal, casherut FROM product_detail WHERE deleted = 0 ORDER BY id"
	prefQuery     = "SELECT id, alcohol, gluten_free, spicy, sugar, vegan, vegetarian, halal, casherut FROM users_preferences ORDER BY id"
	campaignQuery = "SELECT DISTINCT id_product_restaurant AS a FROM advisor_campaign_product WHERE deleted = 0 ORDER BY id_product_restaurant"
)

func viewQuery(kind views.StreamKind) string {
	product := "product_id, "
	if !kind.RequiresProduct() {
		product = ""
	}
	// #nosec G201 -- table name comes from the fixed stream set
	return fmt.Sprintf(
		"SELECT id, action, category_id, %smac_address, user_id, date_insert FROM %s WHERE id > ? ORDER BY id",
		product, kind)
}

// Extractor reads view logs and reference tables from MySQL. The view logs
// live in the statistics database, which may be a different connection from
// the operational one holding the reference tables.
type Extractor struct {
	views     *Client
	reference *Client
}

// NewExtractor returns an extractor reading view logs over viewsClient and
// reference tables over referenceClient. Both may be the same client.
func NewExtractor(viewsClient, referenceClient *Client) *Extractor {
	return &Extractor{views: viewsClient, reference: referenceClient}
}

// ViewRecords reads a whole log.
func (e *Extractor) ViewRecords(ctx context.Context, kind views.StreamKind) ([]views.Record, error) {
	return e.ViewRecordsAfter(ctx, kind, 0)
}

// ViewRecordsAfter reads the rows of a log with id > lastID, in id order.
func (e *Extractor) ViewRecordsAfter(ctx context.Context, kind views.StreamKind, lastID int64) ([]views.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown stream %q", kind)
	}

	var rows []viewRow
	err := e.views.do(ctx, "select", string(kind), func(tx *gorm.DB) error {
		return tx.Raw(viewQuery(kind), lastID).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("load %s after id %d: %w", kind, lastID, err)
	}

	out := make([]views.Record, len(rows))
	for i := range rows {
		out[i] = rows[i].record()
	}
	e.views.logger.Debug().Str("stream", string(kind)).Int64("after_id", lastID).Int("rows", len(out)).
		Msg("Extracted view rows")
	return out, nil
}

// Reference loads every reference table.
func (e *Extractor) Reference(ctx context.Context) (*refgraph.Dataset, error) {
	ds := &refgraph.Dataset{}

	var listings []listingRow
	if err := e.raw(ctx, refgraph.TableListings, listingQuery, &listings); err != nil {
		return nil, err
	}
	ds.Listings = make([]refgraph.ListingRow, len(listings))
	for i, r := range listings {
		ds.Listings[i] = refgraph.ListingRow{ID: r.ID, MasterID: r.IDProduct, Highlight: r.Highlight > 0}
	}

	var details []flagsRow
	if err := e.raw(ctx, refgraph.TableProductDetails, detailQuery, &details); err != nil {
		return nil, err
	}
	ds.ProductDetails = make([]refgraph.ProductDetailRow, len(details))
	for i := range details {
		ds.ProductDetails[i] = refgraph.ProductDetailRow{ProductID: details[i].ID, Flags: details[i].flags()}
	}

	var prefs []flagsRow
	if err := e.raw(ctx, refgraph.TableUserPreferences, prefQuery, &prefs); err != nil {
		return nil, err
	}
	ds.UserPreferences = make([]refgraph.UserPreferenceRow, len(prefs))
	for i := range prefs {
		ds.UserPreferences[i] = refgraph.UserPreferenceRow{UserID: prefs[i].ID, Flags: prefs[i].flags()}
	}

	var campaign []pairRow
	if err := e.raw(ctx, refgraph.TableCampaignListings, campaignQuery, &campaign); err != nil {
		return nil, err
	}
	ds.CampaignListings = make([]int64, len(campaign))
	for i, r := range campaign {
		ds.CampaignListings[i] = r.A
	}

	pairs := make(map[string][]pairRow, len(pairQueries))
	for table, query := range pairQueries {
		var rows []pairRow
		if err := e.raw(ctx, table, query, &rows); err != nil {
			return nil, err
		}
		pairs[table] = rows
	}
	for _, r := range pairs[refgraph.TableProductIngredients] {
		ds.ProductIngredients = append(ds.ProductIngredients, refgraph.ProductIngredientRow{ProductID: r.A, IngredientID: r.B})
	}
	for _, r := range pairs[refgraph.TableListingIngredients] {
		ds.ListingIngredients = append(ds.ListingIngredients, refgraph.ListingIngredientRow{ListingID: r.A, IngredientID: r.B})
	}
	for _, r := range pairs[refgraph.TableIngredientAllergens] {
		ds.IngredientAllergens = append(ds.IngredientAllergens, refgraph.IngredientAllergenRow{IngredientID: r.A, AllergenID: r.B})
	}
	for _, r := range pairs[refgraph.TableUserAllergens] {
		ds.UserAllergens = append(ds.UserAllergens, refgraph.UserAllergenRow{UserID: r.A, AllergenID: r.B})
	}
	for _, r := range pairs[refgraph.TableUserFavorites] {
		ds.UserFavorites = append(ds.UserFavorites, refgraph.UserFavoriteRow{UserID: r.A, ListingID: r.B})
	}

	e.reference.logger.Debug().Interface("rows", ds.Rows()).Msg("Extracted reference tables")
	return ds, nil
}

func (e *Extractor) raw(ctx context.Context, table, query string, dest any) error {
	err := e.reference.do(ctx, "select", table, func(tx *gorm.DB) error {
		return tx.Raw(query).Scan(dest).Error
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}
	return nil
}
