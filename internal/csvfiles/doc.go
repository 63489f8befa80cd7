// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Package csvfiles reads and writes the flat-file snapshot layout: one CSV
// per interaction log and reference table, and a rankings file with the
// columns mac_address,user_id,product_id,rank.
//
// Columns are matched by header name, so extra columns and reordering are
// tolerated. Empty optional cells (user_id, product_id, id_product_master)
// mean absent.
package csvfiles
