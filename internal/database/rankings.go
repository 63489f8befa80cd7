// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/menurank/internal/database/query"
	"github.com/tomtom215/menurank/internal/ranking"
	"github.com/tomtom215/menurank/internal/views"
)

// Name identifies the DuckDB sink in logs and metrics.
func (db *DB) Name() string { return "duckdb" }

// WriteRankings replaces the rankings table with the given batch.
func (db *DB) WriteRankings(ctx context.Context, rankings []ranking.Ranking) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, db.logger, err)
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+TableRankings); err != nil {
		return fmt.Errorf("clear rankings: %w", err)
	}

	if len(rankings) > 0 {
		writtenAt := time.Now().UTC()
		err = execBatch(ctx, tx,
			query.Insert(TableRankings).Columns("mac_address", "id_user", "id_product", "category_id", "rank", "written_at").String(),
			len(rankings), func(i int) []any {
				r := rankings[i]
				var user sql.NullInt64
				if r.User.ID.Resolved {
					user = sql.NullInt64{Int64: r.User.ID.ID, Valid: true}
				}
				return []any{r.User.Device, user, r.ListingID, r.CategoryID, r.Score, writtenAt}
			})
		if err != nil {
			return fmt.Errorf("insert rankings: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	db.logger.Info().Int("rankings", len(rankings)).Msg("Rankings table replaced")
	return nil
}

// Rankings reads the stored batch back in output order.
func (db *DB) Rankings(ctx context.Context) ([]ranking.Ranking, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var out []ranking.Ranking
	err := db.scan(ctx,
		query.Select(TableRankings, "mac_address", "id_user", "id_product", "category_id", "rank").
			OrderBy("mac_address", "id_user NULLS FIRST", "id_product", "category_id").
			String(),
		func(rows *sql.Rows) error {
			var (
				r    ranking.Ranking
				user sql.NullInt64
			)
			if err := rows.Scan(&r.User.Device, &user, &r.ListingID, &r.CategoryID, &r.Score); err != nil {
				return err
			}
			if user.Valid {
				r.User.ID = views.ResolvedID(user.Int64)
			}
			out = append(out, r)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}
