// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import (
	"context"
	"time"

	"github.com/tomtom215/sentinel/internal/aggregate"
	"github.com/tomtom215/sentinel/internal/logging"
)

// HealthReport is one liveness/throughput snapshot, logged periodically and
// served on the ops endpoint.
type HealthReport struct {
	Status          string         `json:"status"`
	UptimeSeconds   float64        `json:"uptime_seconds"`
	EventsProcessed int64          `json:"events_processed"`
	EventsFailed    int64          `json:"events_failed"`
	AlertsSent      int64          `json:"alerts_sent"`
	ActiveBaselines int            `json:"active_baselines"`
	WindowOccupancy map[string]int `json:"window_occupancy"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// HealthTask emits the periodic throughput report.
type HealthTask struct {
	processor *Processor
	windows   *aggregate.WindowSet
	interval  time.Duration
	started   time.Time
}

// NewHealthTask creates the reporter. Interval defaults to 60s.
func NewHealthTask(processor *Processor, windows *aggregate.WindowSet, interval time.Duration) *HealthTask {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &HealthTask{
		processor: processor,
		windows:   windows,
		interval:  interval,
		started:   time.Now(),
	}
}

// Report builds a current snapshot.
func (t *HealthTask) Report() HealthReport {
	stats := t.processor.Stats()
	return HealthReport{
		Status:          "healthy",
		UptimeSeconds:   time.Since(t.started).Seconds(),
		EventsProcessed: stats.Processed,
		EventsFailed:    stats.Failed,
		AlertsSent:      stats.Alerts,
		ActiveBaselines: stats.Baselines,
		WindowOccupancy: t.windows.Occupancy(),
		GeneratedAt:     time.Now().UTC(),
	}
}

// Run logs a report every interval until the context is canceled. Satisfies
// suture.Service.
func (t *HealthTask) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r := t.Report()
			logging.Info().
				Float64("uptime_seconds", r.UptimeSeconds).
				Int64("events_processed", r.EventsProcessed).
				Int64("events_failed", r.EventsFailed).
				Int64("alerts_sent", r.AlertsSent).
				Int("active_baselines", r.ActiveBaselines).
				Interface("window_occupancy", r.WindowOccupancy).
				Msg("pipeline health")
		}
	}
}
