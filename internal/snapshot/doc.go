// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package snapshot mirrors the relational store into the local DuckDB file so
ranking runs can read from disk instead of the production database.

Reference tables are small and reloaded in full on every sync. The three
view logs are append-only with increasing ids; each sync pulls rows with
id greater than the last synced id and appends them. Positions live in
the checkpoint store and advance only after the append commits.

	syncer := snapshot.NewSyncer(mysql.NewExtractor(statsClient, opsClient), duck, checkpoints, logger)
	report, err := syncer.Sync(ctx)
*/
package snapshot
