// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

// Package scorecache publishes rankings to Redis for serving.
//
// Each user gets a hash at <prefix>:<device>:<user id|anon> mapping listing
// ids to scores. A set at <prefix>:index tracks the hashes written by the
// last run so users that dropped out are evicted on the next write.
package scorecache
