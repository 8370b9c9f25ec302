// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Decision batch processing
// - Reconciliation pass phases (unmonitor, add, delete, rebuild)
// - Upstream clients (Plex, Radarr, Sonarr) and their circuit breakers
// - DuckDB query performance

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Decision Recorder Metrics
	DecisionsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisions_processed_total",
			Help: "Total decisions processed, by action and outcome",
		},
		[]string{"action", "outcome"}, // outcome: "applied", "ignored"
	)

	// Reconciliation Metrics
	ReconcileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_seconds",
			Help:    "Duration of full reconciliation passes in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"media_type"},
	)

	ReconcileItemsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_items_sent_total",
			Help: "Total add-and-search requests issued to download backends",
		},
		[]string{"media_type"},
	)

	ReconcileItemsUnmonitored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_items_unmonitored_total",
			Help: "Total unmonitor calls issued to download backends",
		},
		[]string{"media_type"},
	)

	ReconcileRowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_rows_deleted_total",
			Help: "Total rejected suggestion rows removed during reconciliation",
		},
		[]string{"media_type"},
	)

	ReconcileItemFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_item_failures_total",
			Help: "Total per-item failures swallowed during reconciliation",
		},
		[]string{"media_type", "phase"}, // phase: "unmonitor", "add"
	)

	ReconcileLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reconcile_last_success_timestamp",
			Help: "Unix timestamp of the last successful reconciliation pass",
		},
		[]string{"media_type"},
	)

	// Collection Publisher Metrics
	CollectionRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collection_rebuilds_total",
			Help: "Total collection recreate operations",
		},
		[]string{"media_type", "result"}, // result: "success", "failure"
	)

	CollectionSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "collection_size_items",
			Help: "Number of items in the published collection after the last rebuild",
		},
		[]string{"collection"},
	)

	// Upstream Client Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total requests to upstream services",
		},
		[]string{"service", "operation", "result"}, // service: "plex", "radarr", "sonarr"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Duration of upstream service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDecision records one processed decision batch item.
func RecordDecision(action string, applied bool) {
	outcome := "ignored"
	if applied {
		outcome = "applied"
	}
	DecisionsProcessed.WithLabelValues(action, outcome).Inc()
}

// RecordReconcilePass records the aggregate outcome of one reconciliation
// pass.
func RecordReconcilePass(mediaType string, duration time.Duration, sent, unmonitored int, rowsDeleted int64, failures int) {
	ReconcileDuration.WithLabelValues(mediaType).Observe(duration.Seconds())
	ReconcileItemsSent.WithLabelValues(mediaType).Add(float64(sent))
	ReconcileItemsUnmonitored.WithLabelValues(mediaType).Add(float64(unmonitored))
	ReconcileRowsDeleted.WithLabelValues(mediaType).Add(float64(rowsDeleted))
	if failures == 0 {
		ReconcileLastSuccess.WithLabelValues(mediaType).Set(float64(time.Now().Unix()))
	}
}

// RecordUpstreamRequest records one request to Plex, Radarr, or Sonarr.
func RecordUpstreamRequest(service, operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	UpstreamRequests.WithLabelValues(service, operation, result).Inc()
	UpstreamRequestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordDBQuery records one database query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}
