// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/tomtom215/sentinel/internal/event"
)

func samplesFrom(values ...float64) []event.MetricSample {
	out := make([]event.MetricSample, len(values))
	now := time.Now().UTC()
	for i, v := range values {
		out[i] = event.MetricSample{
			TenantID:   "acme",
			SignalType: "response_time",
			Value:      v,
			ObservedAt: now,
		}
	}
	return out
}

func TestAggregateBelowMinSamples(t *testing.T) {
	for n := 0; n < MinSamples; n++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i)
		}
		agg, ok := Aggregate(samplesFrom(values...))
		if ok {
			t.Errorf("n=%d: expected no aggregation below MinSamples", n)
		}
		if agg.Count != 0 {
			t.Errorf("n=%d: expected zero aggregation, got count %d", n, agg.Count)
		}
	}
}

func TestAggregateBasicStats(t *testing.T) {
	// 1..10 in shuffled order; the sort inside Aggregate must not depend on
	// input order.
	agg, ok := Aggregate(samplesFrom(7, 2, 9, 4, 1, 10, 5, 8, 3, 6))
	if !ok {
		t.Fatal("expected aggregation for 10 samples")
	}

	if agg.Count != 10 {
		t.Errorf("Count = %d, want 10", agg.Count)
	}
	if agg.Sum != 55 {
		t.Errorf("Sum = %v, want 55", agg.Sum)
	}
	if agg.Mean != 5.5 {
		t.Errorf("Mean = %v, want 5.5", agg.Mean)
	}
	if agg.Min != 1 {
		t.Errorf("Min = %v, want 1", agg.Min)
	}
	if agg.Max != 10 {
		t.Errorf("Max = %v, want 10", agg.Max)
	}
	// Even length: midpoint of the two middle values.
	if agg.Median != 5.5 {
		t.Errorf("Median = %v, want 5.5", agg.Median)
	}
}

func TestAggregatePercentileIndexRule(t *testing.T) {
	// Sorted values 1..10. Percentiles are index-based: sorted[floor(n*q)]
	// clamped to the last element.
	agg, ok := Aggregate(samplesFrom(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	if !ok {
		t.Fatal("expected aggregation")
	}

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"p50", agg.P50, 6},  // floor(10*0.50) = 5 -> sorted[5]
		{"p90", agg.P90, 10}, // floor(10*0.90) = 9 -> sorted[9]
		{"p95", agg.P95, 10}, // floor(10*0.95) = 9
		{"p99", agg.P99, 10}, // floor(10*0.99) = 9
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestAggregatePercentileClamped(t *testing.T) {
	// 100 identical-spacing values; p99 index is exactly 99, the last element.
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	agg, ok := Aggregate(samplesFrom(values...))
	if !ok {
		t.Fatal("expected aggregation")
	}
	if agg.P99 != 100 {
		t.Errorf("P99 = %v, want 100", agg.P99)
	}
	if agg.P90 != 91 {
		t.Errorf("P90 = %v, want 91", agg.P90)
	}
}

func TestAggregateMedianOddLength(t *testing.T) {
	agg, ok := Aggregate(samplesFrom(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11))
	if !ok {
		t.Fatal("expected aggregation")
	}
	if agg.Median != 6 {
		t.Errorf("Median = %v, want 6", agg.Median)
	}
}

func TestAggregateStdDevSample(t *testing.T) {
	// Sample stddev of 1..10 (divisor n-1) is sqrt(82.5/9).
	agg, ok := Aggregate(samplesFrom(1, 2, 3, 4, 5, 6, 7, 8, 9, 10))
	if !ok {
		t.Fatal("expected aggregation")
	}
	want := math.Sqrt(82.5 / 9)
	if math.Abs(agg.StdDev-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", agg.StdDev, want)
	}
}

func TestAggregateConstantSeries(t *testing.T) {
	agg, ok := Aggregate(samplesFrom(5, 5, 5, 5, 5, 5, 5, 5, 5, 5))
	if !ok {
		t.Fatal("expected aggregation")
	}
	if agg.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0 for constant series", agg.StdDev)
	}
	if agg.Min != 5 || agg.Max != 5 || agg.Median != 5 {
		t.Errorf("constant series stats wrong: %+v", agg)
	}
}
