// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package pipeline runs one ranking pass end to end.

A run loads the three view logs and the reference tables from a Source in
parallel, reconstructs sessions per log, builds the reference graph, ranks
every user and writes the result to each Sink in order. Nothing is written
unless every input loaded and parsed.

	runner, err := pipeline.NewRunner(pipeline.Options{
		Source:       csvfiles.NewDir(...),
		Sinks:        []pipeline.Sink{csvfiles.NewWriter(...)},
		AbandonedCap: 30 * time.Second,
	}, logger)
	summary, err := runner.Run(ctx)

Only one run executes at a time; a concurrent Run returns ErrRunInProgress.
*/
package pipeline
