// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package mysql connects menurank to the relational store of the menu
platform through gorm.

  - Extractor reads the three view logs (optionally only rows after a known
    id) and the reference tables, skipping soft-deleted rows.
  - RankingStore replaces users_product_ai with a ranking batch, inserting
    in chunks inside one transaction.

Every query runs through a gobreaker circuit breaker. After
breaker_max_failures consecutive failures calls fail fast with
ErrUnavailable until breaker_timeout has passed.

Credentials come from configuration only.
*/
package mysql
