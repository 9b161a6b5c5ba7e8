// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package event defines the canonical telemetry envelope consumed from the
// transport and the validation rules applied at ingress.
//
// Incoming payloads are a tagged union discriminated by the Kind field:
//
//   - security: discrete security events (free-text description, declared severity)
//   - metric: continuous numeric samples (signal type + value)
//   - customer: customer activity events (treated as security flow for classification)
//
// Unknown or structurally invalid payloads fail Validate with a ValidationError
// and are routed to the malformed-payload path instead of raising deep inside
// processing.
package event

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current envelope schema version.
// Increment this when making breaking changes to Envelope.
const SchemaVersion = 1

// Kind discriminates the telemetry union at ingress.
type Kind string

const (
	// KindSecurity marks discrete security events (classification flow).
	KindSecurity Kind = "security"

	// KindMetric marks continuous numeric samples (baseline/anomaly flow).
	KindMetric Kind = "metric"

	// KindCustomer marks customer activity events; they ride the
	// classification flow with customer-specific categories.
	KindCustomer Kind = "customer"
)

// Envelope is the canonical wire format for all telemetry consumed by the
// processor. It is immutable once received; enrichment happens on the derived
// EnrichedRecord, never in place.
type Envelope struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	// Identification
	EventID   string    `json:"event_id"`
	TenantID  string    `json:"tenant_id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// SignalType is the security event type or metric name, e.g.
	// "auth_log" or "response_time".
	SignalType string `json:"signal_type"`

	// Security/customer fields
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"` // declared input severity
	Source      string `json:"source,omitempty"`   // emitting system

	// Metric fields. Value is a pointer so a missing value is
	// distinguishable from an explicit zero.
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`

	// Free-form attributes forwarded unmodified into the bronze record.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Raw payload for debugging and future fields
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// NewEnvelope creates an envelope with a unique ID, timestamp, and schema version.
func NewEnvelope(tenantID string, kind Kind, signalType string) *Envelope {
	return &Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		TenantID:      tenantID,
		Kind:          kind,
		SignalType:    signalType,
		Timestamp:     time.Now().UTC(),
	}
}

// ValidationError describes a field-level ingress validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid envelope: %s %s", e.Field, e.Message)
}

// Validate checks required fields per kind and returns a ValidationError on
// the first failure. Malformed envelopes are handled fail-open by the
// classifier, so callers must not drop the message on validation failure.
func (e *Envelope) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.TenantID == "" {
		return &ValidationError{Field: "tenant_id", Message: "required"}
	}
	if e.SignalType == "" {
		return &ValidationError{Field: "signal_type", Message: "required"}
	}
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}

	switch e.Kind {
	case KindSecurity, KindCustomer:
		if e.Description == "" {
			return &ValidationError{Field: "description", Message: "required"}
		}
	case KindMetric:
		if e.Value == nil {
			return &ValidationError{Field: "value", Message: "required"}
		}
	default:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", e.Kind)}
	}

	return nil
}

// EnsureSchemaVersion sets the schema version if not already set.
// Call this when processing envelopes that may predate explicit versioning.
func (e *Envelope) EnsureSchemaVersion() {
	if e.SchemaVersion == 0 {
		e.SchemaVersion = SchemaVersion
	}
}

// Topic returns the NATS subject for this envelope.
// Format: telemetry.<kind>.<tenant_id>
// Example: telemetry.metric.acme
func (e *Envelope) Topic() string {
	return "telemetry." + string(e.Kind) + "." + e.TenantID
}

// MetricSample extracts the immutable sample consumed by the aggregator and
// the baseline store. The second return is false for non-metric envelopes.
func (e *Envelope) MetricSample() (MetricSample, bool) {
	if e.Kind != KindMetric || e.Value == nil {
		return MetricSample{}, false
	}
	return MetricSample{
		TenantID:   e.TenantID,
		SignalType: e.SignalType,
		Value:      *e.Value,
		ObservedAt: e.Timestamp,
	}, true
}

// MetricSample is a single numeric observation keyed by (tenant, signal type).
// It is immutable; both the aggregator windows and the baseline store consume
// copies of it.
type MetricSample struct {
	TenantID   string    `json:"tenant_id"`
	SignalType string    `json:"signal_type"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}
