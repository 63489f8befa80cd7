// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package supervisor runs menurank's long-lived services under a suture v4
tree in serve mode.

Suture restarts a service whose Serve returns, with exponential backoff
once FailureThreshold is exceeded. Supervisor events are logged through
sutureslog, fed by the zerolog slog adapter:

	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddRankingService(services.NewRankingService(runner, cfg, logger))
	tree.AddAPIService(services.NewHTTPService(server, addr, timeout, logger))
	err := tree.Serve(ctx)

The once mode does not use the tree; it calls the pipeline directly.
*/
package supervisor
