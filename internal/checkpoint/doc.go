// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Package checkpoint keeps the last extracted id of each view log in
// BadgerDB, so snapshot syncs only pull rows with a larger id.
//
// Checkpoints only move forward. The syncer advances a checkpoint after the
// corresponding rows are committed to DuckDB; a crash in between re-reads
// those rows, which the DuckDB append skips by id.
package checkpoint
