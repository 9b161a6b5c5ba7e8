// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package event

import (
	"errors"
	"testing"
	"time"
)

func validSecurity() *Envelope {
	return &Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       "evt-1",
		TenantID:      "acme",
		Kind:          KindSecurity,
		SignalType:    "auth_log",
		Timestamp:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Description:   "authentication failed for user bob",
		Severity:      "medium",
		Source:        "auth-service",
	}
}

func validMetric() *Envelope {
	v := 123.4
	return &Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       "evt-2",
		TenantID:      "acme",
		Kind:          KindMetric,
		SignalType:    "response_time",
		Timestamp:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Value:         &v,
		Unit:          "ms",
	}
}

func TestEnvelopeValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Envelope)
		env       *Envelope
		wantField string
	}{
		{name: "valid security", env: validSecurity()},
		{name: "valid metric", env: validMetric()},
		{name: "valid customer", env: func() *Envelope {
			e := validSecurity()
			e.Kind = KindCustomer
			return e
		}()},
		{name: "missing event_id", env: validSecurity(), mutate: func(e *Envelope) { e.EventID = "" }, wantField: "event_id"},
		{name: "missing tenant_id", env: validSecurity(), mutate: func(e *Envelope) { e.TenantID = "" }, wantField: "tenant_id"},
		{name: "missing signal_type", env: validMetric(), mutate: func(e *Envelope) { e.SignalType = "" }, wantField: "signal_type"},
		{name: "zero timestamp", env: validMetric(), mutate: func(e *Envelope) { e.Timestamp = time.Time{} }, wantField: "timestamp"},
		{name: "security without description", env: validSecurity(), mutate: func(e *Envelope) { e.Description = "" }, wantField: "description"},
		{name: "metric without value", env: validMetric(), mutate: func(e *Envelope) { e.Value = nil }, wantField: "value"},
		{name: "unknown kind", env: validSecurity(), mutate: func(e *Envelope) { e.Kind = "trace" }, wantField: "kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := tt.env
			if tt.mutate != nil {
				tt.mutate(env)
			}

			err := env.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("failed field = %s, want %s", verr.Field, tt.wantField)
			}
		})
	}
}

func TestEnvelopeMetricValueZeroIsValid(t *testing.T) {
	env := validMetric()
	zero := 0.0
	env.Value = &zero
	if err := env.Validate(); err != nil {
		t.Errorf("explicit zero value rejected: %v", err)
	}
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope("acme", KindMetric, "cpu")
	if env.EventID == "" {
		t.Error("EventID not generated")
	}
	if env.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", env.SchemaVersion, SchemaVersion)
	}
	if env.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}

	other := NewEnvelope("acme", KindMetric, "cpu")
	if env.EventID == other.EventID {
		t.Error("EventIDs collide")
	}
}

func TestEnsureSchemaVersion(t *testing.T) {
	env := validSecurity()
	env.SchemaVersion = 0
	env.EnsureSchemaVersion()
	if env.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", env.SchemaVersion, SchemaVersion)
	}

	env.SchemaVersion = 99
	env.EnsureSchemaVersion()
	if env.SchemaVersion != 99 {
		t.Error("EnsureSchemaVersion overwrote an explicit version")
	}
}

func TestEnvelopeTopic(t *testing.T) {
	if got := validMetric().Topic(); got != "telemetry.metric.acme" {
		t.Errorf("Topic() = %s, want telemetry.metric.acme", got)
	}
	if got := validSecurity().Topic(); got != "telemetry.security.acme" {
		t.Errorf("Topic() = %s, want telemetry.security.acme", got)
	}
}

func TestMetricSampleExtraction(t *testing.T) {
	env := validMetric()
	sample, ok := env.MetricSample()
	if !ok {
		t.Fatal("expected sample from metric envelope")
	}
	if sample.TenantID != "acme" || sample.SignalType != "response_time" || sample.Value != 123.4 {
		t.Errorf("sample = %+v", sample)
	}
	if !sample.ObservedAt.Equal(env.Timestamp) {
		t.Errorf("ObservedAt = %v, want %v", sample.ObservedAt, env.Timestamp)
	}

	if _, ok := validSecurity().MetricSample(); ok {
		t.Error("security envelope yielded a metric sample")
	}

	noValue := validMetric()
	noValue.Value = nil
	if _, ok := noValue.MetricSample(); ok {
		t.Error("metric envelope without value yielded a sample")
	}
}
