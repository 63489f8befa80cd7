// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package views

// IdentityMap maps a device token to the user id it was last seen with.
type IdentityMap map[string]int64

// BuildIdentityMap scans a stream once and records the numeric id of every
// device that appears with one. When a device is seen with several ids the
// latest record in stream order wins.
func BuildIdentityMap(events []Event) IdentityMap {
	m := make(IdentityMap)
	for i := range events {
		if u := events[i].User; u.ID.Resolved {
			m[u.Device] = u.ID.ID
		}
	}
	return m
}

// Resolve rewrites an anonymous user to the identity known for its device.
// Resolved users and unknown devices pass through unchanged.
func (m IdentityMap) Resolve(u User) User {
	if u.ID.Resolved {
		return u
	}
	if id, ok := m[u.Device]; ok {
		return User{Device: u.Device, ID: ResolvedID(id)}
	}
	return u
}

// ResolveIdentities runs both phases over a stream: the map is completed
// first, then every event is rewritten. The input slice is left untouched.
func ResolveIdentities(events []Event) ([]Event, IdentityMap) {
	m := BuildIdentityMap(events)
	out := make([]Event, len(events))
	for i, ev := range events {
		ev.User = m.Resolve(ev.User)
		out[i] = ev
	}
	return out, m
}
