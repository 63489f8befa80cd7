// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package database is the local DuckDB snapshot store.

It holds three kinds of tables:

  - view logs (product_views, product_image_views, category_views), appended
    incrementally by the snapshot syncer and keyed by their source id
  - reference tables, replaced wholesale on every sync
  - rankings, replaced by every run that lists duckdb as a sink

A *DB serves as a run source (ViewRecords, Reference) and as a sink
(WriteRankings). Every multi-row write runs in one transaction with a
prepared statement, so a failed write leaves the previous contents intact.

Use Path ":memory:" for tests.
*/
package database
