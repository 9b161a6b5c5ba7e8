// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package store

import (
	"testing"
	"time"
)

func TestObjectKeyString(t *testing.T) {
	ts := time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC)

	tests := []struct {
		name string
		key  ObjectKey
		want string
	}{
		{
			name: "bronze security event",
			key: ObjectKey{
				Category:  CategorySecurityEvents,
				Timestamp: ts,
				TenantID:  "acme",
				RecordID:  "rec-1",
			},
			want: "security-events/date=2026/08/30/hour=14/customer=acme/rec-1.json",
		},
		{
			name: "bronze metric without tenant",
			key: ObjectKey{
				Category:  CategoryApplicationMetrics,
				Timestamp: ts,
				RecordID:  "rec-2",
			},
			want: "application-metrics/date=2026/08/30/hour=14/rec-2.json",
		},
		{
			name: "silver aggregation with window",
			key: ObjectKey{
				Category:  CategoryAggregatedMetrics,
				Timestamp: ts,
				TenantID:  "acme",
				Window:    "5min",
				RecordID:  "agg-1",
			},
			want: "aggregated-metrics/date=2026/08/30/hour=14/customer=acme/window=5min/agg-1.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %s\nwant       %s", got, tt.want)
			}
		})
	}
}

func TestObjectKeyStringNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("plus2", 2*3600)
	key := ObjectKey{
		Category:  CategorySecurityEvents,
		Timestamp: time.Date(2026, 8, 30, 1, 0, 0, 0, loc), // 23:00 the day before in UTC
		RecordID:  "rec-1",
	}
	want := "security-events/date=2026/08/29/hour=23/rec-1.json"
	if got := key.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
