// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Package notify announces completed ranking runs on a message bus so
// serving components can reload scores. Delivery is best effort: the
// pipeline logs a failed publish and keeps the run successful.
package notify
