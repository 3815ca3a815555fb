// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package metrics provides Prometheus instrumentation for the pipeline,
// clustering engine, fan-out bus, and HTTP surface, grounded on the
// teacher's internal/metrics package (promauto-registered collectors, one
// var block per subsystem).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics.
	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Duration of each enrichment pipeline stage.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	PipelineStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_errors_total",
			Help: "Total pipeline stage failures by stage.",
		},
		[]string{"stage"},
	)

	PipelineJobRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_job_retries_total",
			Help: "Total top-level job retries performed by the work queue.",
		},
	)

	// Clustering metrics.
	ClusterAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cluster_assignments_total",
			Help: "Event-to-cluster assignment outcomes.",
		},
		[]string{"outcome"}, // joined_existing, formed_new, unclustered
	)

	ActiveClusters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_clusters",
			Help: "Current number of clusters with event_count > 1.",
		},
	)

	// Fan-out bus metrics.
	BusSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bus_subscribers",
			Help: "Current number of live streaming subscriptions.",
		},
	)

	BusPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_publish_errors_total",
			Help: "Total fan-out publish failures (never surfaced to callers).",
		},
	)

	// External dependency metrics.
	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "external_call_duration_seconds",
			Help:    "Duration of calls to external collaborators (object store, AI endpoints, subprocess tools).",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dependency"},
	)

	ExternalCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_call_errors_total",
			Help: "Total errors from external collaborators.",
		},
		[]string{"dependency"},
	)

	// HTTP metrics.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
