// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

/*
Package metrics exposes Prometheus instrumentation for menurank.

All collectors register with the default registry through promauto and are
served at /metrics by the operator API.

Run metrics:
  - menurank_runs_total{status}: success, failure or skipped
  - menurank_run_duration_seconds
  - menurank_run_last_success_timestamp
  - menurank_rankings_last_run

Input metrics:
  - menurank_view_records_loaded_total{stream}
  - menurank_session_outcomes_total{stream,outcome}

Sink and store metrics:
  - menurank_sink_write_duration_seconds{sink}
  - menurank_sink_errors_total{sink}
  - menurank_db_query_duration_seconds{store,operation,table}
  - menurank_circuit_breaker_state{name}

Example queries:

	# failed runs in the last day
	increase(menurank_runs_total{status="failure"}[1d])

	# share of abandoned product views
	rate(menurank_session_outcomes_total{stream="product_views",outcome="abandoned"}[1h])
	  / ignoring(outcome) sum without(outcome) (rate(menurank_session_outcomes_total{stream="product_views"}[1h]))
*/
package metrics
