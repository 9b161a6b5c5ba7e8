// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/sentinel/internal/baseline"
	"github.com/tomtom215/sentinel/internal/classify"
	"github.com/tomtom215/sentinel/internal/event"
)

// Layer tags which storage tier a record belongs to.
type Layer string

const (
	// LayerBronze marks raw per-event enriched records.
	LayerBronze Layer = "bronze"

	// LayerSilver marks periodic windowed aggregations.
	LayerSilver Layer = "silver"
)

// EnrichedRecord is the unit persisted to the tiered store: the original
// envelope plus exactly one of a threat classification or an anomaly result,
// never both, never neither. The flow is decided by the envelope kind at
// ingress.
//
// The processor owns the record for one processing cycle, then hands copies
// to the store writer and, conditionally, the alert dispatcher.
type EnrichedRecord struct {
	RecordID      string         `json:"record_id"`
	SchemaVersion int            `json:"schema_version"`
	Layer         Layer          `json:"layer"`
	Event         event.Envelope `json:"event"`

	Classification *classify.Classification `json:"classification,omitempty"`
	Anomaly        *baseline.Result         `json:"anomaly,omitempty"`

	ProcessingTimeMS float64   `json:"processing_time_ms"`
	ProcessedAt      time.Time `json:"processed_at"`
	Processor        string    `json:"processor"`
}

// NewEnrichedRecord starts a bronze record for the envelope.
func NewEnrichedRecord(env event.Envelope, processor string) *EnrichedRecord {
	return &EnrichedRecord{
		RecordID:      uuid.NewString(),
		SchemaVersion: event.SchemaVersion,
		Layer:         LayerBronze,
		Event:         env,
		ProcessedAt:   time.Now().UTC(),
		Processor:     processor,
	}
}

// Validate enforces the exactly-one-enrichment invariant.
func (r *EnrichedRecord) Validate() error {
	if r.RecordID == "" {
		return fmt.Errorf("enriched record: record_id is empty")
	}
	if r.Classification != nil && r.Anomaly != nil {
		return fmt.Errorf("enriched record %s: both classification and anomaly set", r.RecordID)
	}
	if r.Classification == nil && r.Anomaly == nil {
		return fmt.Errorf("enriched record %s: neither classification nor anomaly set", r.RecordID)
	}
	return nil
}

// Severity returns the effective severity from whichever enrichment is set.
func (r *EnrichedRecord) Severity() event.Severity {
	switch {
	case r.Classification != nil:
		return r.Classification.Severity
	case r.Anomaly != nil:
		return r.Anomaly.Severity
	default:
		return event.SeverityNormal
	}
}

// Marshal serializes the record for storage.
func (r *EnrichedRecord) Marshal() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal enriched record %s: %w", r.RecordID, err)
	}
	return data, nil
}

// UnmarshalEnrichedRecord deserializes a stored record.
func UnmarshalEnrichedRecord(data []byte) (*EnrichedRecord, error) {
	var r EnrichedRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal enriched record: %w", err)
	}
	return &r, nil
}
