// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/sentinel/internal/logging"
	"github.com/tomtom215/sentinel/internal/metrics"
)

// Dispatcher routes alerts to channel notifiers and persists the outcome.
//
// Ordering per alert: write the record, attempt every routed channel, write
// the record again with per-channel results. Channel failures are isolated;
// only a record-store failure propagates to the caller, because without the
// durable record the alert would be unauditable.
type Dispatcher struct {
	records   RecordStore
	dedup     *DedupCache
	notifiers map[Channel]Notifier
}

// NewDispatcher creates a dispatcher. Channels with no notifier configured
// fall back to a LogNotifier so routing stays visible. A nil dedup disables
// suppression.
func NewDispatcher(records RecordStore, dedup *DedupCache, notifiers map[Channel]Notifier) *Dispatcher {
	routed := map[Channel]Notifier{
		ChannelUrgent:   NewLogNotifier(string(ChannelUrgent)),
		ChannelStandard: NewLogNotifier(string(ChannelStandard)),
		ChannelTicket:   NewLogNotifier(string(ChannelTicket)),
	}
	for ch, n := range notifiers {
		if n != nil {
			routed[ch] = n
		}
	}
	return &Dispatcher{records: records, dedup: dedup, notifiers: routed}
}

// Dispatch routes one alert. Returns the completed record and an error only
// when the record store fails.
func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) (Record, error) {
	now := time.Now().UTC()
	rec := Record{Alert: a, CreatedAt: now, UpdatedAt: now}

	if d.dedup != nil && d.dedup.Suppress(suppressionKey(a)) {
		rec.Suppressed = true
		metrics.AlertsSuppressed.Inc()
		if err := d.records.Upsert(ctx, rec); err != nil {
			return rec, fmt.Errorf("persist suppressed alert: %w", err)
		}
		return rec, nil
	}

	// Persist before delivery: a crash mid-dispatch must leave a record.
	if err := d.records.Upsert(ctx, rec); err != nil {
		return rec, fmt.Errorf("persist alert record: %w", err)
	}

	metrics.AlertsDispatched.WithLabelValues(string(a.Severity)).Inc()

	for _, ch := range ChannelsFor(a.Severity) {
		result := ChannelResult{Channel: ch, Status: DeliverySent, AttemptedAt: time.Now().UTC()}

		n, ok := d.notifiers[ch]
		if !ok {
			result.Status = DeliveryFailed
			result.Error = "no notifier configured"
			rec.Channels = append(rec.Channels, result)
			continue
		}

		if err := n.Notify(ctx, a); err != nil {
			result.Status = DeliveryFailed
			result.Error = err.Error()
			metrics.AlertChannelSends.WithLabelValues(string(ch), "error").Inc()
			logging.Ctx(ctx).Error().
				Err(err).
				Str("alert_id", a.AlertID).
				Str("channel", string(ch)).
				Msg("alert channel delivery failed")
		} else {
			metrics.AlertChannelSends.WithLabelValues(string(ch), "ok").Inc()
		}
		rec.Channels = append(rec.Channels, result)
	}

	rec.UpdatedAt = time.Now().UTC()
	if err := d.records.Upsert(ctx, rec); err != nil {
		return rec, fmt.Errorf("persist alert record outcome: %w", err)
	}
	return rec, nil
}

// suppressionKey fingerprints a finding so repeats collapse but severity
// escalations still alert.
func suppressionKey(a Alert) string {
	return a.TenantID + "\x00" + a.Source + "\x00" + a.Title + "\x00" + string(a.Severity)
}
