// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/menurank/internal/refgraph"
	"github.com/tomtom215/menurank/internal/views"
)

// TableRankings holds the last written ranking batch.
const TableRankings = "rankings"

// Dietary flag columns, in variant priority order.
const flagColumns = "alcohol, gluten_free, spicy, sugar, vegan, vegetarian, halal, casherut"

const flagColumnsDDL = `
	alcohol BOOLEAN NOT NULL DEFAULT false,
	gluten_free BOOLEAN NOT NULL DEFAULT false,
	spicy BOOLEAN NOT NULL DEFAULT false,
	sugar BOOLEAN NOT NULL DEFAULT false,
	vegan BOOLEAN NOT NULL DEFAULT false,
	vegetarian BOOLEAN NOT NULL DEFAULT false,
	halal BOOLEAN NOT NULL DEFAULT false,
	casherut BOOLEAN NOT NULL DEFAULT false`

// View log rows keep action and date_insert raw; they are validated when a
// run parses them, like every other source.
func viewTableDDL(kind views.StreamKind) string {
	product := "product_id BIGINT,"
	if !kind.RequiresProduct() {
		product = ""
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT PRIMARY KEY,
	action VARCHAR NOT NULL,
	category_id BIGINT NOT NULL,
	%s
	mac_address VARCHAR NOT NULL,
	user_id BIGINT,
	date_insert VARCHAR NOT NULL
)`, kind, product)
}

func schemaDDL() []string {
	ddl := make([]string, 0, 16)
	for _, kind := range views.StreamKinds() {
		ddl = append(ddl, viewTableDDL(kind))
	}
	ddl = append(ddl,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableListings+` (
	id BIGINT NOT NULL,
	id_product_master BIGINT,
	highlight BOOLEAN NOT NULL DEFAULT false
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableProductDetails+` (
	product_id BIGINT NOT NULL,`+flagColumnsDDL+`
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableProductIngredients+` (
	id_product BIGINT NOT NULL,
	id_ingredient BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableListingIngredients+` (
	id_product_restaurant BIGINT NOT NULL,
	id_ingredient BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableIngredientAllergens+` (
	id_ingredient BIGINT NOT NULL,
	id_allergen BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableUserAllergens+` (
	id_user BIGINT NOT NULL,
	id_allergen BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableUserPreferences+` (
	id BIGINT NOT NULL,`+flagColumnsDDL+`
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableUserFavorites+` (
	id_user BIGINT NOT NULL,
	id_product_restaurant BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS `+refgraph.TableCampaignListings+` (
	id_product_restaurant BIGINT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS `+TableRankings+` (
	mac_address VARCHAR NOT NULL,
	id_user BIGINT,
	id_product BIGINT NOT NULL,
	category_id BIGINT NOT NULL,
	rank BIGINT NOT NULL,
	written_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_rankings_user ON `+TableRankings+` (mac_address, id_user)`,
	)
	return ddl
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaDDL() {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
