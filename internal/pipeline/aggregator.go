// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/sentinel/internal/aggregate"
	"github.com/tomtom215/sentinel/internal/logging"
	"github.com/tomtom215/sentinel/internal/metrics"
	"github.com/tomtom215/sentinel/internal/store"
)

// AggregationTask drains the sliding windows through the aggregator on a
// fixed interval and writes silver-layer output. It shares only the window
// buffers with the foreground path; the lock striping there keeps the two
// from contending across unrelated entities.
//
// A failed silver write is logged and retried implicitly on the next cycle
// (the window still holds the samples). Unlike bronze, silver output is
// derived data and tolerates gaps.
type AggregationTask struct {
	windows  *aggregate.WindowSet
	store    store.ObjectStore
	interval time.Duration
	procID   string
}

// NewAggregationTask creates the background aggregation task.
func NewAggregationTask(windows *aggregate.WindowSet, objectStore store.ObjectStore, interval time.Duration, processorID string) *AggregationTask {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &AggregationTask{
		windows:  windows,
		store:    objectStore,
		interval: interval,
		procID:   processorID,
	}
}

// Run executes aggregation cycles until the context is canceled. The current
// cycle completes before exit. Satisfies suture.Service.
func (t *AggregationTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.runCycle(ctx)
		}
	}
}

// runCycle aggregates every window over every entity group.
func (t *AggregationTask) runCycle(ctx context.Context) {
	now := time.Now().UTC()

	for _, spec := range t.windows.Specs() {
		cycleStart := time.Now()
		written := 0

		for group, samples := range t.windows.Snapshot(spec.Name) {
			stats, ok := aggregate.Aggregate(samples)
			if !ok {
				metrics.AggregationsSkipped.WithLabelValues(spec.Name).Inc()
				continue
			}

			wa := aggregate.WindowAggregation{
				Window:      spec.Name,
				TenantID:    group.TenantID,
				SignalType:  group.SignalType,
				WindowStart: now.Add(-spec.Duration),
				WindowEnd:   now,
				SampleCount: stats.Count,
				Stats:       stats,
			}

			if err := t.writeSilver(ctx, wa, now); err != nil {
				logging.Error().
					Err(err).
					Str("window", spec.Name).
					Str("tenant_id", group.TenantID).
					Str("signal_type", group.SignalType).
					Msg("silver write failed")
				continue
			}
			written++
			metrics.AggregationsProduced.WithLabelValues(spec.Name).Inc()
		}

		metrics.AggregationDuration.WithLabelValues(spec.Name).Observe(time.Since(cycleStart).Seconds())
		if written > 0 {
			logging.Debug().
				Str("window", spec.Name).
				Int("aggregations", written).
				Msg("aggregation cycle complete")
		}
	}
}

func (t *AggregationTask) writeSilver(ctx context.Context, wa aggregate.WindowAggregation, now time.Time) error {
	payload, err := json.Marshal(wa)
	if err != nil {
		return err
	}

	err = t.store.Put(ctx, store.Object{
		Key: store.ObjectKey{
			Category:  store.CategoryAggregatedMetrics,
			Timestamp: now,
			TenantID:  wa.TenantID,
			Window:    wa.Window,
			RecordID:  uuid.NewString(),
		},
		Payload: payload,
		Metadata: map[string]string{
			store.MetaEventType:  "aggregation",
			store.MetaTenantID:   wa.TenantID,
			store.MetaSignalType: wa.SignalType,
			store.MetaWindow:     wa.Window,
			store.MetaProcessor:  t.procID,
		},
	})
	if err != nil {
		metrics.StoreWrites.WithLabelValues(string(store.CategoryAggregatedMetrics), "error").Inc()
		return err
	}
	metrics.StoreWrites.WithLabelValues(string(store.CategoryAggregatedMetrics), "ok").Inc()
	return nil
}
