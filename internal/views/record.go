// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package views

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/menurank/internal/validation"
)

var (
	// ErrMalformedRecord is wrapped by every record that fails to parse.
	ErrMalformedRecord = errors.New("malformed view record")

	// ErrMissingScope marks a product-stream record without a product id.
	ErrMissingScope = errors.New("view record missing product id")
)

// Record is a raw log row as delivered by a source. Optional columns are nil
// when the row leaves them empty.
type Record struct {
	ID         int64
	Action     string `validate:"required,oneof=OPEN CLOSE"`
	CategoryID int64  `validate:"gte=0"`
	ProductID  *int64 `validate:"omitempty,gte=0"`
	Device     string
	UserID     *int64 `validate:"omitempty,gte=0"`
	Timestamp  string `validate:"required,logtime"`
}

// RecordError locates a malformed record inside its stream.
type RecordError struct {
	Stream StreamKind
	Index  int
	ID     int64
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %d (id %d): %v", e.Stream, e.Index, e.ID, e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

// ParseRecord converts a raw record of the given stream into an Event.
// Timestamps carry no zone and are read as UTC.
func ParseRecord(kind StreamKind, rec *Record) (Event, error) {
	if verr := validation.ValidateStruct(rec); verr != nil {
		return Event{}, verr
	}
	if kind.RequiresProduct() && rec.ProductID == nil {
		return Event{}, ErrMissingScope
	}

	at, err := time.ParseInLocation(validation.TimestampLayout, rec.Timestamp, time.UTC)
	if err != nil {
		return Event{}, fmt.Errorf("parse timestamp %q: %w", rec.Timestamp, err)
	}

	ev := Event{
		Scope: CategoryScope(rec.CategoryID),
		User:  User{Device: rec.Device},
		At:    at,
	}
	if rec.Action == "OPEN" {
		ev.Action = ActionOpen
	} else {
		ev.Action = ActionClose
	}
	// Category pages never carry a product even if the column is filled.
	if kind.RequiresProduct() {
		ev.Scope = ProductScope(rec.CategoryID, *rec.ProductID)
	}
	if rec.UserID != nil {
		ev.User.ID = ResolvedID(*rec.UserID)
	}
	return ev, nil
}

// ParseRecords parses a whole stream, stopping at the first malformed record.
func ParseRecords(kind StreamKind, records []Record) ([]Event, error) {
	events := make([]Event, len(records))
	for i := range records {
		ev, err := ParseRecord(kind, &records[i])
		if err != nil {
			return nil, &RecordError{Stream: kind, Index: i, ID: records[i].ID, Err: err}
		}
		events[i] = ev
	}
	return events, nil
}
