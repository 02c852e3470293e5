// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

// Package metrics registers the application's Prometheus instrumentation:
// per-component counters, gauges, and histograms exported on the narrow
// control plane's /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Discovery (C2)
	DiscoveryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discovery_fetch_duration_seconds",
			Help:    "Duration of one source adapter's fetch for one program URL",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	DiscoveryAdapterErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_adapter_errors_total",
			Help: "Adapter failures, isolated per source",
		},
		[]string{"source"},
	)

	DiscoveryEpisodesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_episodes_found_total",
			Help: "Episodes found per source before merge",
		},
		[]string{"source"},
	)

	RateLimitWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discovery_rate_limit_wait_seconds",
			Help:    "Time callers spend waiting on the shared public-host token bucket",
			Buckets: []float64{0, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// Dedupe (C3)
	DedupeDuplicatesFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedupe_duplicates_total",
			Help: "Discovered entries folded into an existing canonical one",
		},
		[]string{"reason"},
	)

	// Ingest (C4)
	IngestEpisodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_episodes_total",
			Help: "Episodes ingested, by outcome",
		},
		[]string{"outcome"}, // created, revived, updated
	)

	IngestJobsPlanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_jobs_planned_total",
			Help: "DownloadJobs created by asset planning",
		},
	)

	// Availability (C5)
	AvailabilityChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_checks_total",
			Help: "Availability probes, by resulting status",
		},
		[]string{"status"},
	)

	WatchRequeuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "availability_watch_requeued_total",
			Help: "Watch jobs re-queued to pending after content reappeared",
		},
	)

	// Download (C6)
	DownloadJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_jobs_total",
			Help: "Completed download job attempts, by terminal status",
		},
		[]string{"status", "asset_type"},
	)

	DownloadJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "download_job_duration_seconds",
			Help:    "Wall-clock duration of one download job",
			Buckets: []float64{1, 5, 15, 30, 60, 180, 600, 1800},
		},
		[]string{"asset_type"},
	)

	// Reconciliation (on-demand library import)
	ReconcileFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_files_total",
			Help: "Scanned library files, by match outcome",
		},
		[]string{"outcome"}, // matched, unmatched
	)

	ReconcileAssetsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_assets_imported_total",
			Help: "Asset rows created or completed from a matched local file",
		},
	)

	// Circuit breakers (discovery HTTP)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"breaker"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Calls made through a circuit breaker, by outcome",
		},
		[]string{"breaker", "outcome"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	// Scheduler (C7)
	SchedulerTickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Duration of one scheduler tick",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300},
		},
		[]string{"tick"}, // crawl, download, availability
	)

	SchedulerTickErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_tick_errors_total",
			Help: "Fatal errors within one scheduler tick (the tick itself is not cancelled)",
		},
		[]string{"tick"},
	)

	// Catalog (C1)
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Duration of catalog repository operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CatalogUniqueRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_unique_constraint_retries_total",
			Help: "Upserts that hit a unique-constraint collision and re-read once",
		},
	)

	// Control plane HTTP (internal/middleware.PrometheusMetrics)
	httpActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "controlplane_http_active_requests",
			Help: "In-flight control plane HTTP requests",
		},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "controlplane_http_request_duration_seconds",
			Help:    "Duration of one control plane HTTP request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// TrackActiveRequest increments or decrements the in-flight request gauge;
// called on entry and via defer on exit by internal/middleware.PrometheusMetrics.
func TrackActiveRequest(started bool) {
	if started {
		httpActiveRequests.Inc()
		return
	}
	httpActiveRequests.Dec()
}

// RecordAPIRequest observes one completed control plane HTTP request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
