// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/sentinel/internal/aggregate"
	"github.com/tomtom215/sentinel/internal/alert"
	"github.com/tomtom215/sentinel/internal/baseline"
	"github.com/tomtom215/sentinel/internal/classify"
	"github.com/tomtom215/sentinel/internal/event"
	"github.com/tomtom215/sentinel/internal/logging"
	"github.com/tomtom215/sentinel/internal/metrics"
	"github.com/tomtom215/sentinel/internal/store"
)

// Processor runs the per-message enrichment flow:
// decode, classify or detect-then-update, bronze store write, conditional
// alert dispatch.
//
// Returning an error from Handle withholds the ack; the transport redelivers
// and, after retry exhaustion, poisons the message. Alert dispatch failures
// are logged, never returned: the bronze write is the durability source of
// truth and alerting is best-effort relative to it.
type Processor struct {
	serializer *event.Serializer
	classifier *classify.Classifier
	baselines  *baseline.Store
	detector   *baseline.Detector
	windows    *aggregate.WindowSet
	store      store.ObjectStore
	dispatcher *alert.Dispatcher

	processorID string

	processed  atomic.Int64
	failed     atomic.Int64
	alertCount atomic.Int64
}

// NewProcessor wires the enrichment flow. All collaborators are required
// except windows, which defaults to the standard window set.
func NewProcessor(
	classifier *classify.Classifier,
	baselines *baseline.Store,
	detector *baseline.Detector,
	windows *aggregate.WindowSet,
	objectStore store.ObjectStore,
	dispatcher *alert.Dispatcher,
	processorID string,
) (*Processor, error) {
	if objectStore == nil {
		return nil, ErrNilStore
	}
	if dispatcher == nil {
		return nil, ErrNilDispatcher
	}
	if windows == nil {
		windows = aggregate.NewWindowSet(nil)
	}
	if processorID == "" {
		processorID = "sentinel-processor"
	}

	return &Processor{
		serializer:  event.NewSerializer(),
		classifier:  classifier,
		baselines:   baselines,
		detector:    detector,
		windows:     windows,
		store:       objectStore,
		dispatcher:  dispatcher,
		processorID: processorID,
	}, nil
}

// Handle processes one consumed message. Registered as the router's consumer
// handler; ack and nack are derived from the return value by the router.
func (p *Processor) Handle(msg *message.Message) error {
	start := time.Now()
	metrics.MessagesConsumed.Inc()

	ctx := logging.ContextWithCorrelationID(msg.Context(), msg.UUID)

	env, err := p.serializer.Unmarshal(msg.Payload)
	if err != nil {
		p.failed.Add(1)
		metrics.EventsFailed.WithLabelValues("decode").Inc()
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	env.EnsureSchemaVersion()

	rec := NewEnrichedRecord(*env, p.processorID)

	// The envelope kind decides the flow. A metric without a usable value
	// falls through to classification, which fails open on it.
	if sample, ok := env.MetricSample(); ok {
		p.scoreMetric(rec, sample)
	} else {
		p.classifySecurity(rec, env)
	}

	rec.ProcessingTimeMS = float64(time.Since(start).Microseconds()) / 1000.0

	if err := p.writeBronze(ctx, rec); err != nil {
		p.failed.Add(1)
		metrics.EventsFailed.WithLabelValues("store").Inc()
		return err
	}

	p.dispatchIfQualifying(ctx, rec)

	p.processed.Add(1)
	metrics.EventsProcessed.WithLabelValues(string(env.Kind)).Inc()
	metrics.ProcessingDuration.WithLabelValues(string(env.Kind)).Observe(time.Since(start).Seconds())
	return nil
}

// scoreMetric runs detection strictly before the baseline update so the
// sample never tests against a baseline it has already shifted, then feeds
// the sliding windows.
func (p *Processor) scoreMetric(rec *EnrichedRecord, sample event.MetricSample) {
	result := p.detector.Detect(sample.TenantID, sample.SignalType, sample.Value)
	p.baselines.Update(sample.TenantID, sample.SignalType, sample.Value, sample.ObservedAt)
	p.windows.Add(sample)

	rec.Anomaly = &result

	if !result.BaselineAvailable {
		metrics.BaselineWarmups.Inc()
	}
	if result.IsAnomaly {
		metrics.AnomaliesDetected.WithLabelValues(string(result.Severity)).Inc()
	}
	metrics.BaselineEntries.Set(float64(p.baselines.Len()))
}

func (p *Processor) classifySecurity(rec *EnrichedRecord, env *event.Envelope) {
	c := p.classifier.Classify(env)
	rec.Classification = &c

	metrics.ThreatsClassified.WithLabelValues(string(c.Severity)).Inc()
	for _, category := range c.DetectedCategories {
		metrics.ThreatCategories.WithLabelValues(category).Inc()
	}
}

func (p *Processor) writeBronze(ctx context.Context, rec *EnrichedRecord) error {
	payload, err := rec.Marshal()
	if err != nil {
		return err
	}

	category := store.CategorySecurityEvents
	if rec.Anomaly != nil {
		category = store.CategoryApplicationMetrics
	}

	meta := map[string]string{
		store.MetaEventType:  string(rec.Event.Kind),
		store.MetaSeverity:   string(rec.Severity()),
		store.MetaTenantID:   rec.Event.TenantID,
		store.MetaSignalType: rec.Event.SignalType,
		store.MetaProcessor:  p.processorID,
	}
	if rec.Classification != nil {
		meta[store.MetaRiskScore] = strconv.Itoa(rec.Classification.RiskScore)
	}

	writeStart := time.Now()
	err = p.store.Put(ctx, store.Object{
		Key: store.ObjectKey{
			Category:  category,
			Timestamp: rec.ProcessedAt,
			TenantID:  rec.Event.TenantID,
			RecordID:  rec.RecordID,
		},
		Payload:  payload,
		Metadata: meta,
	})
	metrics.StoreWriteDuration.Observe(time.Since(writeStart).Seconds())
	if err != nil {
		metrics.StoreWrites.WithLabelValues(string(category), "error").Inc()
		return fmt.Errorf("bronze write %s: %w", rec.RecordID, err)
	}
	metrics.StoreWrites.WithLabelValues(string(category), "ok").Inc()
	return nil
}

// dispatchIfQualifying routes alert-worthy records. Qualification: a
// classification that matched at least one category or escalated to
// high/critical, or a positive anomaly. Dispatch failure never blocks the
// ack; the bronze record already persisted.
func (p *Processor) dispatchIfQualifying(ctx context.Context, rec *EnrichedRecord) {
	qualifies := false
	source := ""
	switch {
	case rec.Classification != nil:
		qualifies = len(rec.Classification.DetectedCategories) > 0 ||
			rec.Classification.Severity.AtLeast(event.SeverityHigh)
		source = "classifier"
	case rec.Anomaly != nil:
		qualifies = rec.Anomaly.IsAnomaly
		source = "detector"
	}
	if !qualifies {
		return
	}

	a := alert.New(rec.RecordID, rec.Severity(), source, summarize(rec))
	a.TenantID = rec.Event.TenantID
	a.Context = alertContext(rec)

	if _, err := p.dispatcher.Dispatch(ctx, a); err != nil {
		logging.Ctx(ctx).Error().
			Err(err).
			Str("record_id", rec.RecordID).
			Str("alert_id", a.AlertID).
			Msg("alert dispatch failed")
		return
	}
	p.alertCount.Add(1)
}

// summarize builds the human-readable alert line per finding type.
func summarize(rec *EnrichedRecord) string {
	switch {
	case rec.Classification != nil:
		c := rec.Classification
		return fmt.Sprintf("Security threat detected: %v (risk score %d) from %s",
			c.DetectedCategories, c.RiskScore, rec.Event.SignalType)
	case rec.Anomaly != nil:
		a := rec.Anomaly
		return fmt.Sprintf("Anomalous %s: value %.2f is %.2f standard deviations from baseline %.2f",
			rec.Event.SignalType, a.CurrentValue, a.ZScore, a.BaselineMean)
	default:
		return ""
	}
}

func alertContext(rec *EnrichedRecord) map[string]string {
	out := map[string]string{
		"signal_type": rec.Event.SignalType,
		"event_id":    rec.Event.EventID,
	}
	switch {
	case rec.Classification != nil:
		out["risk_score"] = strconv.Itoa(rec.Classification.RiskScore)
		for i, cat := range rec.Classification.DetectedCategories {
			out["category_"+strconv.Itoa(i)] = cat
		}
	case rec.Anomaly != nil:
		out["z_score"] = strconv.FormatFloat(rec.Anomaly.ZScore, 'f', 3, 64)
		out["current_value"] = strconv.FormatFloat(rec.Anomaly.CurrentValue, 'f', 3, 64)
		out["baseline_mean"] = strconv.FormatFloat(rec.Anomaly.BaselineMean, 'f', 3, 64)
		out["deviation_percent"] = strconv.FormatFloat(rec.Anomaly.DeviationPercent, 'f', 1, 64)
	}
	return out
}

// Stats is a point-in-time throughput snapshot for health reporting.
type Stats struct {
	Processed int64
	Failed    int64
	Alerts    int64
	Baselines int
}

// Stats returns current counters.
func (p *Processor) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Alerts:    p.alertCount.Load(),
		Baselines: p.baselines.Len(),
	}
}
