// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package event

import "testing"

func TestSeverityOrdering(t *testing.T) {
	ordered := []Severity{SeverityNormal, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("%s should rank above %s", ordered[i], ordered[i-1])
		}
	}

	if !SeverityCritical.AtLeast(SeverityHigh) {
		t.Error("critical should be at least high")
	}
	if SeverityMedium.AtLeast(SeverityHigh) {
		t.Error("medium should not be at least high")
	}
	if !SeverityHigh.AtLeast(SeverityHigh) {
		t.Error("AtLeast should be inclusive")
	}
}

func TestSeverityUnknownRanksBelowNormal(t *testing.T) {
	if Severity("bogus").Rank() >= SeverityNormal.Rank() {
		t.Error("unknown severity must rank below normal")
	}
	if Severity("bogus").AtLeast(SeverityLow) {
		t.Error("unknown severity must never clear a threshold")
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
	}{
		{"critical", SeverityCritical},
		{"CRITICAL", SeverityCritical},
		{"  High ", SeverityHigh},
		{"medium", SeverityMedium},
		{"normal", SeverityNormal},
		{"low", SeverityLow},
		{"", SeverityLow},
		{"urgent", SeverityLow},
	}
	for _, tt := range tests {
		if got := ParseSeverity(tt.in); got != tt.want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
