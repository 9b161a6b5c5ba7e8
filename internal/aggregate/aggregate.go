// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package aggregate computes windowed numeric aggregations over metric
// sample batches for the silver storage layer.
//
// Aggregation is a single pass over a sorted copy of the batch, not a
// streaming quantile sketch. Window sizes are bounded by the ring buffers in
// this package, so the sort cost stays fixed regardless of event volume.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/sentinel/internal/event"
)

// MinSamples is the smallest batch that produces an aggregation. Below this
// the percentile behavior is not meaningful and Aggregate returns empty - not
// an error.
const MinSamples = 10

// Aggregation holds the computed statistics for one batch.
type Aggregation struct {
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"avg"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	StdDev float64 `json:"stddev"`
}

// Aggregate computes statistics over the batch. The second return is false
// when the batch has fewer than MinSamples values.
//
// Percentiles are sorted-index-based, not interpolated: index is
// floor(len * quantile) clamped to len-1. The median follows the usual
// midpoint rule (average of the two middle values for even lengths).
func Aggregate(samples []event.MetricSample) (Aggregation, bool) {
	n := len(samples)
	if n < MinSamples {
		return Aggregation{}, false
	}

	sorted := make([]float64, n)
	sum := 0.0
	for i, s := range samples {
		sorted[i] = s.Value
		sum += s.Value
	}
	sort.Float64s(sorted)

	mean := sum / float64(n)

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(n-1))

	return Aggregation{
		Count:  n,
		Sum:    sum,
		Mean:   mean,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Median: median(sorted),
		P50:    percentile(sorted, 0.50),
		P90:    percentile(sorted, 0.90),
		P95:    percentile(sorted, 0.95),
		P99:    percentile(sorted, 0.99),
		StdDev: stddev,
	}, true
}

// percentile returns sorted[floor(len*q)] clamped to the last element.
func percentile(sorted []float64, q float64) float64 {
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// median returns the midpoint of a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// WindowAggregation is one silver-layer output: the statistics for a single
// (tenant, signal type) group within one named window.
type WindowAggregation struct {
	Window      string      `json:"window"`
	TenantID    string      `json:"tenant_id"`
	SignalType  string      `json:"signal_type"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	SampleCount int         `json:"sample_count"`
	Stats       Aggregation `json:"aggregations"`
}
