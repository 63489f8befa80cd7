// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package api serves the operator HTTP surface of a menurank instance.

Routes:

	GET  /health                          component health, last run, uptime
	GET  /health/live                     liveness check
	GET  /metrics                         Prometheus exposition
	GET  /api/v1/runs/latest              summary of the last completed run
	POST /api/v1/runs                     trigger a ranking run (rate limited)
	GET  /api/v1/scores/{device}/{user}   cached scores for one user

{user} is a numeric user id or "anon" for an unauthenticated device.

JSON bodies use a common envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"..."}}
	{"status":"error","error":{"code":"RUN_IN_PROGRESS","message":"..."},...}
*/
package api
