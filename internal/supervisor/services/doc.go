// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package services adapts long-running menurank components to suture.Service.

  - RankingService: runs the ranking pipeline on startup and on an interval
  - SnapshotService: mirrors MySQL into DuckDB on an interval
  - HTTPService: serves the operator API with graceful shutdown

Periodic services never return on a failed cycle. They log the error and
retry on the next tick, so a flapping database does not push the supervisor
into backoff. Only HTTPService returns errors, because a listener that
cannot bind must be restarted.
*/
package services
