// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package views

import "time"

// DefaultAbandonedCap bounds the duration credited to an open that was never closed.
const DefaultAbandonedCap = 30 * time.Second

// Durations is the accumulated view time of one user, per scope.
type Durations map[Scope]time.Duration

// UserViews is the accumulated duration table of one stream.
type UserViews map[User]Durations

// Add credits d to (u, s), creating entries on first contribution.
func (v UserViews) Add(u User, s Scope, d time.Duration) {
	per, ok := v[u]
	if !ok {
		per = make(Durations)
		v[u] = per
	}
	per[s] += d
}

// Of returns the durations of u; the result is nil (and safe to read) when u
// never viewed anything.
func (v UserViews) Of(u User) Durations {
	return v[u]
}

// Total returns the summed duration across every user and scope.
func (v UserViews) Total() time.Duration {
	var total time.Duration
	for _, per := range v {
		for _, d := range per {
			total += d
		}
	}
	return total
}

// SessionStats counts how each event of a stream was handled.
type SessionStats struct {
	Events int
	Opens  int
	Closes int
	// Completed counts Close events matched to an Open.
	Completed int
	// Abandoned counts Opens superseded by a later Open on the same identifier.
	Abandoned int
	// Dangling counts Opens still pending at end of stream.
	Dangling int
	// Orphans counts Close events without a pending Open.
	Orphans int
	// NegativeDurations counts matched Closes stamped before their Open.
	NegativeDurations int
}

// Contributions is the number of duration increments the stream produced.
func (s SessionStats) Contributions() int {
	return s.Completed + s.Abandoned + s.Dangling
}

// Reconstructor folds OPEN/CLOSE events into accumulated durations.
type Reconstructor struct {
	// AbandonedCap bounds implicit closes. Zero means DefaultAbandonedCap.
	AbandonedCap time.Duration
}

// Reconstruct applies the default reconstructor.
func Reconstruct(events []Event, now time.Time) (UserViews, SessionStats) {
	return Reconstructor{}.Reconstruct(events, now)
}

// Reconstruct folds a whole stream. Each (user, scope) pair runs its own
// idle/open machine:
//
//   - Open while idle starts a session at the event time.
//   - Open while open credits the abandoned session with now-open clamped
//     to [0, cap], then restarts at the event time.
//   - Close while open credits close-open, unbounded above.
//   - Close while idle is ignored.
//
// Sessions still open at the end are credited like abandoned ones. now is
// the instant of the run, captured once by the caller.
func (r Reconstructor) Reconstruct(events []Event, now time.Time) (UserViews, SessionStats) {
	limit := r.AbandonedCap
	if limit <= 0 {
		limit = DefaultAbandonedCap
	}

	out := make(UserViews)
	pending := make(map[identifier]time.Time)
	stats := SessionStats{Events: len(events)}

	for i := range events {
		ev := &events[i]
		id := ev.identifier()

		switch ev.Action {
		case ActionOpen:
			stats.Opens++
			if openedAt, ok := pending[id]; ok {
				out.Add(ev.User, ev.Scope, clamp(now.Sub(openedAt), limit))
				stats.Abandoned++
			}
			pending[id] = ev.At

		case ActionClose:
			stats.Closes++
			openedAt, ok := pending[id]
			if !ok {
				stats.Orphans++
				continue
			}
			delete(pending, id)

			d := ev.At.Sub(openedAt)
			if d < 0 {
				d = 0
				stats.NegativeDurations++
			}
			out.Add(ev.User, ev.Scope, d)
			stats.Completed++
		}
	}

	for id, openedAt := range pending {
		out.Add(id.user, id.scope, clamp(now.Sub(openedAt), limit))
		stats.Dangling++
	}

	return out, stats
}

func clamp(d, limit time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > limit {
		return limit
	}
	return d
}
