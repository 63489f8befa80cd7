// Menurank - Personalized Menu Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/menurank

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run status label values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

var (
	// Ranking runs
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_runs_total",
			Help: "Ranking runs by outcome",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "menurank_run_duration_seconds",
			Help:    "Wall time of a complete ranking run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	RunLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "menurank_run_last_success_timestamp",
			Help: "Unix time of the last successful run",
		},
	)

	RunInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "menurank_run_in_progress",
			Help: "1 while a ranking run is executing",
		},
	)

	// Input
	RecordsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_view_records_loaded_total",
			Help: "Interaction records read per stream",
		},
		[]string{"stream"},
	)

	SessionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_session_outcomes_total",
			Help: "Reconstructed view intervals per stream and outcome",
		},
		[]string{"stream", "outcome"}, // completed, abandoned, dangling, orphan, negative
	)

	// Output
	RankingsProduced = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "menurank_rankings_last_run",
			Help: "Number of ranking records produced by the last run",
		},
	)

	RankingExclusions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_ranking_adjustments_total",
			Help: "Rankings affected by allergy, booster or preference rules",
		},
		[]string{"rule"}, // allergy, booster, preference
	)

	SinkWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menurank_sink_write_duration_seconds",
			Help:    "Duration of writing a ranking set to one sink",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	SinkRecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_sink_records_written_total",
			Help: "Ranking records written per sink",
		},
		[]string{"sink"},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_sink_errors_total",
			Help: "Failed writes per sink",
		},
		[]string{"sink"},
	)

	// Stores
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menurank_db_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_db_query_errors_total",
			Help: "Failed store queries",
		},
		[]string{"store", "operation", "table"},
	)

	SnapshotRowsCopied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_snapshot_rows_copied_total",
			Help: "Rows mirrored from the relational store into DuckDB",
		},
		[]string{"table"},
	)

	SnapshotLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "menurank_snapshot_last_success_timestamp",
			Help: "Unix time of the last successful snapshot sync",
		},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "menurank_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Notifications
	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_notifications_published_total",
			Help: "Run notifications by publish result",
		},
		[]string{"result"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menurank_api_requests_total",
			Help: "Operator API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menurank_api_request_duration_seconds",
			Help:    "Operator API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRun records the outcome of one ranking run.
func RecordRun(duration time.Duration, rankings int, err error) {
	RunDuration.Observe(duration.Seconds())
	if err != nil {
		RunsTotal.WithLabelValues(StatusFailure).Inc()
		return
	}
	RunsTotal.WithLabelValues(StatusSuccess).Inc()
	RankingsProduced.Set(float64(rankings))
	RunLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordRunSkipped counts a trigger that found a run already in progress.
func RecordRunSkipped() {
	RunsTotal.WithLabelValues(StatusSkipped).Inc()
}

// TrackRun flips the in-progress gauge.
func TrackRun(active bool) {
	if active {
		RunInProgress.Set(1)
	} else {
		RunInProgress.Set(0)
	}
}

// SessionCounts is the subset of reconstruction stats exported per stream.
type SessionCounts struct {
	Records           int
	Completed         int
	Abandoned         int
	Dangling          int
	Orphans           int
	NegativeDurations int
}

// RecordSessions exports reconstruction counters for one stream.
func RecordSessions(stream string, c SessionCounts) {
	RecordsLoaded.WithLabelValues(stream).Add(float64(c.Records))
	SessionOutcomes.WithLabelValues(stream, "completed").Add(float64(c.Completed))
	SessionOutcomes.WithLabelValues(stream, "abandoned").Add(float64(c.Abandoned))
	SessionOutcomes.WithLabelValues(stream, "dangling").Add(float64(c.Dangling))
	SessionOutcomes.WithLabelValues(stream, "orphan").Add(float64(c.Orphans))
	SessionOutcomes.WithLabelValues(stream, "negative").Add(float64(c.NegativeDurations))
}

// RecordAdjustments exports the rule counters of a ranking pass.
func RecordAdjustments(allergy, boosted, preferred int) {
	RankingExclusions.WithLabelValues("allergy").Add(float64(allergy))
	RankingExclusions.WithLabelValues("booster").Add(float64(boosted))
	RankingExclusions.WithLabelValues("preference").Add(float64(preferred))
}

// RecordSinkWrite records one sink write.
func RecordSinkWrite(sink string, records int, duration time.Duration, err error) {
	SinkWriteDuration.WithLabelValues(sink).Observe(duration.Seconds())
	if err != nil {
		SinkErrors.WithLabelValues(sink).Inc()
		return
	}
	SinkRecordsWritten.WithLabelValues(sink).Add(float64(records))
}

// RecordDBQuery records a store query.
func RecordDBQuery(store, operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(store, operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(store, operation, table).Inc()
	}
}

// RecordSnapshotTable counts rows copied for one table.
func RecordSnapshotTable(table string, rows int) {
	SnapshotRowsCopied.WithLabelValues(table).Add(float64(rows))
}

// RecordSnapshotSuccess stamps the last successful sync.
func RecordSnapshotSuccess() {
	SnapshotLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordCircuitBreakerTransition records a breaker state change.
// States follow gobreaker: 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordNotification counts a publish attempt.
func RecordNotification(err error) {
	if err != nil {
		NotificationsPublished.WithLabelValues(StatusFailure).Inc()
		return
	}
	NotificationsPublished.WithLabelValues(StatusSuccess).Inc()
}

// RecordAPIRequest records an operator API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
