// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sentinel/internal/aggregate"
	"github.com/tomtom215/sentinel/internal/event"
	"github.com/tomtom215/sentinel/internal/store"
)

func fillWindow(w *aggregate.WindowSet, tenant, signal string, n int) {
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		w.Add(event.MetricSample{
			TenantID:   tenant,
			SignalType: signal,
			Value:      float64(i + 1),
			ObservedAt: now,
		})
	}
}

func TestAggregationCycleWritesSilver(t *testing.T) {
	windows := aggregate.NewWindowSet([]aggregate.WindowSpec{
		{Name: "1min", Duration: time.Minute, Capacity: 60},
	})
	objects := &mockObjectStore{}
	task := NewAggregationTask(windows, objects, time.Minute, "proc-test")

	fillWindow(windows, "acme", "response_time", 20)
	task.runCycle(context.Background())

	if objects.count() != 1 {
		t.Fatalf("puts = %d, want 1", objects.count())
	}

	obj := objects.last()
	if obj.Key.Category != store.CategoryAggregatedMetrics {
		t.Errorf("category = %s, want aggregated-metrics", obj.Key.Category)
	}
	if obj.Key.Window != "1min" || obj.Key.TenantID != "acme" {
		t.Errorf("key = %+v", obj.Key)
	}
	if obj.Metadata[store.MetaWindow] != "1min" || obj.Metadata[store.MetaSignalType] != "response_time" {
		t.Errorf("metadata = %v", obj.Metadata)
	}

	var wa aggregate.WindowAggregation
	if err := json.Unmarshal(obj.Payload, &wa); err != nil {
		t.Fatalf("decode aggregation: %v", err)
	}
	if wa.SampleCount != 20 || wa.Stats.Min != 1 || wa.Stats.Max != 20 {
		t.Errorf("aggregation = %+v", wa)
	}
	if !wa.WindowEnd.After(wa.WindowStart) {
		t.Errorf("window bounds inverted: %v .. %v", wa.WindowStart, wa.WindowEnd)
	}
	if got := wa.WindowEnd.Sub(wa.WindowStart); got != time.Minute {
		t.Errorf("window span = %s, want 1m", got)
	}
}

func TestAggregationCycleSkipsSparseGroups(t *testing.T) {
	windows := aggregate.NewWindowSet([]aggregate.WindowSpec{
		{Name: "1min", Duration: time.Minute, Capacity: 60},
	})
	objects := &mockObjectStore{}
	task := NewAggregationTask(windows, objects, time.Minute, "proc-test")

	fillWindow(windows, "acme", "sparse_signal", aggregate.MinSamples-1)
	fillWindow(windows, "acme", "busy_signal", aggregate.MinSamples)
	task.runCycle(context.Background())

	if objects.count() != 1 {
		t.Fatalf("puts = %d, want only the busy group", objects.count())
	}
	if objects.last().Metadata[store.MetaSignalType] != "busy_signal" {
		t.Errorf("wrong group written: %v", objects.last().Metadata)
	}
}

func TestAggregationCycleToleratesWriteFailure(t *testing.T) {
	windows := aggregate.NewWindowSet(nil)
	objects := &mockObjectStore{fail: true}
	task := NewAggregationTask(windows, objects, time.Minute, "proc-test")

	fillWindow(windows, "acme", "response_time", 20)
	// Must not panic or abort; samples stay buffered for the next cycle.
	task.runCycle(context.Background())

	snap := windows.Snapshot("1min")
	if len(snap[aggregate.GroupKey{TenantID: "acme", SignalType: "response_time"}]) != 20 {
		t.Error("samples lost after failed silver write")
	}
}

func TestAggregationTaskRunStopsOnCancel(t *testing.T) {
	task := NewAggregationTask(aggregate.NewWindowSet(nil), &mockObjectStore{}, 10*time.Millisecond, "proc-test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNewAggregationTaskDefaultInterval(t *testing.T) {
	task := NewAggregationTask(aggregate.NewWindowSet(nil), &mockObjectStore{}, 0, "proc-test")
	if task.interval != 60*time.Second {
		t.Errorf("interval = %s, want 60s", task.interval)
	}
}
