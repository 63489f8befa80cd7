// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package csvfiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// table reads a headered CSV stream and looks columns up by name.
type table struct {
	name   string
	r      *csv.Reader
	cols   map[string]int
	row    []string
	line   int
	rowErr error
}

func newTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file, header expected", name)
		}
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		cols[strings.ToLower(h)] = i
	}
	return &table{name: name, r: cr, cols: cols, line: 1}, nil
}

// require fails unless one of each alias group is present.
func (t *table) require(columns ...[]string) error {
	for _, aliases := range columns {
		if _, ok := t.index(aliases...); !ok {
			return fmt.Errorf("%s: %w %q", t.name, ErrMissingColumn, aliases[0])
		}
	}
	return nil
}

func (t *table) index(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := t.cols[a]; ok {
			return i, true
		}
	}
	return 0, false
}

// next advances to the next row. It returns false at EOF or on error;
// err reports the latter.
func (t *table) next() (bool, error) {
	row, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", t.name, err)
	}
	t.line++
	t.row = row
	t.rowErr = nil
	return true, nil
}

// cell returns the trimmed value of the first present alias, or "".
func (t *table) cell(aliases ...string) string {
	i, ok := t.index(aliases...)
	if !ok || i >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[i])
}

// integer parses a required integer cell. Parse failures are kept in rowErr.
func (t *table) integer(aliases ...string) int64 {
	v := t.cell(aliases...)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil && t.rowErr == nil {
		t.rowErr = fmt.Errorf("%s line %d: column %s: %w", t.name, t.line, aliases[0], err)
	}
	return n
}

// optInteger parses an optional integer cell; an empty cell is nil.
func (t *table) optInteger(aliases ...string) *int64 {
	if t.cell(aliases...) == "" {
		return nil
	}
	n := t.integer(aliases...)
	return &n
}

// flag reads a 0/1 style cell as a boolean. Empty counts as false.
func (t *table) flag(aliases ...string) bool {
	if t.cell(aliases...) == "" {
		return false
	}
	return t.integer(aliases...) > 0
}

// err returns the first parse error of the current row.
func (t *table) err() error {
	return t.rowErr
}
