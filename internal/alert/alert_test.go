// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package alert

import (
	"reflect"
	"testing"

	"github.com/tomtom215/sentinel/internal/event"
)

func TestDeriveAlertIDDeterministic(t *testing.T) {
	first := DeriveAlertID("rec-123")
	for i := 0; i < 5; i++ {
		if got := DeriveAlertID("rec-123"); got != first {
			t.Fatalf("DeriveAlertID not deterministic: %s vs %s", got, first)
		}
	}
	if DeriveAlertID("rec-124") == first {
		t.Error("distinct records derived the same alert ID")
	}
}

func TestNewAlert(t *testing.T) {
	a := New("rec-9", event.SeverityHigh, "classifier", "failed_login detected")
	if a.AlertID != DeriveAlertID("rec-9") {
		t.Error("AlertID not derived from the source record")
	}
	if a.RecordID != "rec-9" {
		t.Errorf("RecordID = %s, want rec-9", a.RecordID)
	}
	if a.Severity != event.SeverityHigh || a.Source != "classifier" {
		t.Errorf("alert fields wrong: %+v", a)
	}
	if a.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestChannelsFor(t *testing.T) {
	tests := []struct {
		severity event.Severity
		want     []Channel
	}{
		{event.SeverityCritical, []Channel{ChannelUrgent, ChannelTicket}},
		{event.SeverityHigh, []Channel{ChannelUrgent}},
		{event.SeverityMedium, []Channel{ChannelStandard}},
		{event.SeverityLow, []Channel{ChannelStandard}},
		{event.SeverityNormal, nil},
		{event.Severity("bogus"), nil},
	}
	for _, tt := range tests {
		if got := ChannelsFor(tt.severity); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ChannelsFor(%s) = %v, want %v", tt.severity, got, tt.want)
		}
	}
}
