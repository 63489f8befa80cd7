// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package query

import "strings"

// Placeholders returns n comma-separated ? markers.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// InsertBuilder constructs an INSERT statement.
type InsertBuilder struct {
	table      string
	columns    []string
	arity      int
	ignoreDups bool
}

// Insert starts an INSERT into table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Columns names the target columns; the value list matches their count.
func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = columns
	b.arity = len(columns)
	return b
}

// Arity inserts positionally into all n columns of the table.
func (b *InsertBuilder) Arity(n int) *InsertBuilder {
	b.columns = nil
	b.arity = n
	return b
}

// OnConflictDoNothing skips rows that violate a key.
func (b *InsertBuilder) OnConflictDoNothing() *InsertBuilder {
	b.ignoreDups = true
	return b
}

// String renders the statement.
func (b *InsertBuilder) String() string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.table)
	if len(b.columns) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" VALUES (")
	sb.WriteString(Placeholders(b.arity))
	sb.WriteString(")")
	if b.ignoreDups {
		sb.WriteString(" ON CONFLICT DO NOTHING")
	}
	return sb.String()
}

// SelectBuilder constructs a SELECT statement.
type SelectBuilder struct {
	table   string
	columns []string
	order   []string
}

// Select starts a SELECT of columns from table.
func Select(table string, columns ...string) *SelectBuilder {
	return &SelectBuilder{table: table, columns: columns}
}

// OrderBy appends ordering terms, e.g. "id" or "id_user NULLS FIRST".
func (b *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	b.order = append(b.order, terms...)
	return b
}

// String renders the statement.
func (b *SelectBuilder) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	if len(b.order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.order, ", "))
	}
	return sb.String()
}
