// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package metrics defines Prometheus collectors for the pipeline. All
// collectors register with the default registry via promauto and are exposed
// on the operational HTTP server at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline Metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_events_processed_total",
			Help: "Total number of events processed end to end",
		},
		[]string{"event_type"}, // "security", "metric", "customer"
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_events_failed_total",
			Help: "Total number of events that failed processing",
		},
		[]string{"stage"}, // "decode", "classify", "detect", "store", "poison"
	)

	ProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_processing_duration_seconds",
			Help:    "Per-event processing duration from receipt to ack",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"event_type"},
	)

	PoisonedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_poisoned_messages_total",
			Help: "Total number of messages routed to the poison queue",
		},
	)

	// Classification Metrics
	ThreatsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classify_threats_total",
			Help: "Total number of security events by classified severity",
		},
		[]string{"severity"},
	)

	ThreatCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classify_categories_matched_total",
			Help: "Total number of threat category matches",
		},
		[]string{"category"},
	)

	// Anomaly Detection Metrics
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detect_anomalies_total",
			Help: "Total number of metric anomalies by severity",
		},
		[]string{"severity"},
	)

	BaselineEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "detect_baseline_entries",
			Help: "Current number of tracked (tenant, signal) baselines",
		},
	)

	BaselineWarmups = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detect_baseline_warmups_total",
			Help: "Total number of detections skipped for insufficient baseline samples",
		},
	)

	// Aggregation Metrics
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregate_cycle_duration_seconds",
			Help:    "Duration of one background aggregation cycle per window",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"window"},
	)

	AggregationsProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregate_records_produced_total",
			Help: "Total number of silver aggregation records written",
		},
		[]string{"window"},
	)

	AggregationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregate_groups_skipped_total",
			Help: "Total number of sample groups below the aggregation minimum",
		},
		[]string{"window"},
	)

	// Store Metrics
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_writes_total",
			Help: "Total number of object store writes",
		},
		[]string{"category", "status"}, // status: "ok", "error"
	)

	StoreWriteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "store_write_duration_seconds",
			Help:    "Duration of object store puts",
			Buckets: prometheus.DefBuckets,
		},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	// Alert Metrics
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_dispatched_total",
			Help: "Total number of alerts dispatched by severity",
		},
		[]string{"severity"},
	)

	AlertChannelSends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_channel_sends_total",
			Help: "Total number of per-channel notification attempts",
		},
		[]string{"channel", "status"}, // status: "ok", "error"
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alert_suppressed_total",
			Help: "Total number of duplicate alerts suppressed by the dedup cache",
		},
	)

	// Transport Metrics
	MessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transport_messages_published_total",
			Help: "Total number of messages published to the broker",
		},
		[]string{"topic_class"}, // "telemetry", "alert", "poison"
	)

	MessagesConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transport_messages_consumed_total",
			Help: "Total number of messages consumed from the broker",
		},
	)
)

// SetBreakerState records a circuit breaker transition. State values follow
// gobreaker: 0 closed, 1 half-open, 2 open.
func SetBreakerState(name string, state int) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
