// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package database

import (
	"database/sql"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

// ErrUnknownStream is returned for a stream kind without a table.
var ErrUnknownStream = errors.New("unknown view stream")

// closeWithLog closes a resource and logs a failure.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func closeWithLog(closer io.Closer, logger zerolog.Logger, resource string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Str("type", resource).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource on an error path where the close error is
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// rollback aborts tx unless it was committed; cause is the error that made
// the caller give up.
//
//nolint:gocritic // logger passed by value following zerolog conventions
func rollback(tx *sql.Tx, logger zerolog.Logger, cause error) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error().Err(err).AnErr("original_error", cause).Msg("Transaction rollback failed")
	}
}
