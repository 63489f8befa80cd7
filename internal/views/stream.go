// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package views

import "time"

// StreamResult is the immutable output of one processed log.
type StreamResult struct {
	Kind        StreamKind
	Views       UserViews
	Stats       SessionStats
	Identities  int
	UsersViewed int
}

// Process parses, resolves and reconstructs one stream. A malformed record
// fails the whole stream and no partial table is returned.
func (r Reconstructor) Process(kind StreamKind, records []Record, now time.Time) (*StreamResult, error) {
	events, err := ParseRecords(kind, records)
	if err != nil {
		return nil, err
	}

	resolved, identities := ResolveIdentities(events)
	table, stats := r.Reconstruct(resolved, now)

	return &StreamResult{
		Kind:        kind,
		Views:       table,
		Stats:       stats,
		Identities:  len(identities),
		UsersViewed: len(table),
	}, nil
}
