// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Package query builds the parameterized statements of the DuckDB store.
//
// Table and column names are trusted identifiers from fixed sets in the
// calling package; values always travel as ? parameters.
//
//	query.Insert("product_views").
//		Columns("id", "action", "category_id").
//		OnConflictDoNothing().
//		String()
//	// INSERT INTO product_views (id, action, category_id) VALUES (?, ?, ?) ON CONFLICT DO NOTHING
//
//	query.Select("rankings", "mac_address", "rank").OrderBy("mac_address").String()
//	// SELECT mac_address, rank FROM rankings ORDER BY mac_address
package query
