// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Package logging provides the process-wide zerolog logger for menurank.
//
// Call Init once from main with the values loaded by the config package.
// Components derive their own logger with a component field:
//
//	logger := logging.WithComponent("snapshot")
//	logger.Info().Int("rows", n).Msg("Table synced")
//
// Run-scoped code logs through Ctx so that every line of a ranking run
// carries its run_id:
//
//	ctx = logging.ContextWithRunID(ctx, logging.NewRunID())
//	logging.Ctx(ctx).Info().Msg("Run started")
//
// SlogHandler bridges slog consumers (the suture supervisor hook) onto the
// same zerolog output.
//
// Always terminate event chains with Msg or Send; an unterminated event is
// never written.
package logging
