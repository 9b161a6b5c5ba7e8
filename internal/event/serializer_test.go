// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package event

import (
	"testing"
)

func TestSerializerRoundTrip(t *testing.T) {
	s := NewSerializer()

	env := validSecurity()
	env.Attributes = map[string]string{"host": "web-01", "region": "eu-west-1"}

	data, err := s.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.EventID != env.EventID || got.TenantID != env.TenantID {
		t.Errorf("identity fields lost: %+v", got)
	}
	if got.Kind != env.Kind || got.SignalType != env.SignalType {
		t.Errorf("discriminator fields lost: %+v", got)
	}
	if got.Severity != env.Severity || got.Description != env.Description {
		t.Errorf("security fields lost: %+v", got)
	}
	if !got.Timestamp.Equal(env.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, env.Timestamp)
	}
	if got.Attributes["host"] != "web-01" {
		t.Errorf("attributes lost: %v", got.Attributes)
	}
}

func TestSerializerMarshalRejectsInvalid(t *testing.T) {
	s := NewSerializer()
	env := validSecurity()
	env.TenantID = ""

	if _, err := s.Marshal(env); err == nil {
		t.Error("Marshal accepted an invalid envelope")
	}
}

func TestSerializerUnmarshalSkipsValidation(t *testing.T) {
	s := NewSerializer()

	// Structurally valid JSON missing required fields must decode; the
	// fail-open classification path owns the validation decision.
	env, err := s.Unmarshal([]byte(`{"kind":"security","description":"x"}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.Validate() == nil {
		t.Error("expected the decoded envelope to fail validation")
	}
}

func TestSerializerUnmarshalMalformedJSON(t *testing.T) {
	s := NewSerializer()
	if _, err := s.Unmarshal([]byte(`{"kind":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if _, err := s.Unmarshal([]byte(`not json at all`)); err == nil {
		t.Error("expected error for non-JSON payload")
	}
}
