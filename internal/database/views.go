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
	"github.com/tomtom215/menurank/internal/metrics"
	"github.com/tomtom215/menurank/internal/views"
)

func viewColumns(kind views.StreamKind) []string {
	if kind.RequiresProduct() {
		return []string{"id", "action", "category_id", "product_id", "mac_address", "user_id", "date_insert"}
	}
	return []string{"id", "action", "category_id", "mac_address", "user_id", "date_insert"}
}

// ViewRecords returns a mirrored log in id order.
func (db *DB) ViewRecords(ctx context.Context, kind views.StreamKind) (out []views.Record, err error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStream, kind)
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("duckdb", "select", string(kind), time.Since(start), err) }()

	// #nosec G201 -- table and columns come from the fixed stream set
	stmt := query.Select(string(kind), viewColumns(kind)...).OrderBy("id").String()
	rows, err := db.conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer closeWithLog(rows, db.logger, "rows")

	for rows.Next() {
		var (
			rec     views.Record
			product sql.NullInt64
			user    sql.NullInt64
		)
		dest := []any{&rec.ID, &rec.Action, &rec.CategoryID}
		if kind.RequiresProduct() {
			dest = append(dest, &product)
		}
		dest = append(dest, &rec.Device, &user, &rec.Timestamp)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		rec.ProductID = fromNull(product)
		rec.UserID = fromNull(user)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return out, nil
}

// AppendViews inserts records into a mirrored log in one transaction. Rows
// whose id is already present are skipped, so replaying a batch is safe.
// It returns the number of rows inserted.
func (db *DB) AppendViews(ctx context.Context, kind views.StreamKind, records []views.Record) (inserted int, err error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStream, kind)
	}
	if len(records) == 0 {
		return 0, nil
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() { metrics.RecordDBQuery("duckdb", "insert", string(kind), time.Since(start), err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollback(tx, db.logger, err)
		}
	}()

	// #nosec G201 -- table and columns come from the fixed stream set
	insert := query.Insert(string(kind)).Columns(viewColumns(kind)...).OnConflictDoNothing().String()
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeWithLog(stmt, db.logger, "prepared statement")

	for i := range records {
		r := &records[i]
		args := []any{r.ID, r.Action, r.CategoryID}
		if kind.RequiresProduct() {
			args = append(args, toNull(r.ProductID))
		}
		args = append(args, r.Device, toNull(r.UserID), r.Timestamp)

		res, execErr := stmt.ExecContext(ctx, args...)
		if execErr != nil {
			return 0, fmt.Errorf("insert %s id %d: %w", kind, r.ID, execErr)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted += int(n)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return inserted, nil
}

// MaxViewID returns the highest mirrored id of a log, 0 when empty.
func (db *DB) MaxViewID(ctx context.Context, kind views.StreamKind) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownStream, kind)
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var id sql.NullInt64
	// #nosec G201 -- table comes from the fixed stream set
	if err := db.conn.QueryRowContext(ctx, query.Select(string(kind), "MAX(id)").String()).Scan(&id); err != nil {
		return 0, fmt.Errorf("max id of %s: %w", kind, err)
	}
	return id.Int64, nil
}

func toNull(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func fromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
