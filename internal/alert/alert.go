// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package alert routes high-severity findings to notification channels and
// keeps a durable record of every dispatch.
//
// Channel delivery is best-effort: a failing channel never blocks the others
// and never blocks the pipeline. The alert record is the source of truth; it
// is written before any channel is attempted, so a crash mid-dispatch leaves
// an auditable record rather than a silent gap.
package alert

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/sentinel/internal/event"
)

// Channel names an alert delivery target.
type Channel string

const (
	// ChannelUrgent is the paging channel for critical and high findings.
	ChannelUrgent Channel = "urgent"

	// ChannelStandard is the routine notification channel.
	ChannelStandard Channel = "standard"

	// ChannelTicket opens a tracking ticket for critical findings.
	ChannelTicket Channel = "ticket"
)

// Alert is one dispatchable finding.
type Alert struct {
	AlertID   string         `json:"alert_id"`
	RecordID  string         `json:"record_id"`
	TenantID  string         `json:"tenant_id,omitempty"`
	Severity  event.Severity `json:"severity"`
	Source    string         `json:"source"` // "classifier" or "detector"
	Title     string         `json:"title"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`

	// Context carries finding-specific fields: matched categories and risk
	// score for classifications, z-score and baseline stats for anomalies.
	Context map[string]string `json:"context,omitempty"`
}

// alertNamespace scopes deterministic alert IDs to this application.
var alertNamespace = uuid.MustParse("7f1d2c3a-9b4e-4a6f-8c5d-2e7b1a0f9d3c")

// DeriveAlertID returns the deterministic alert ID for a source record. A
// redelivered record derives the same ID, so the second dispatch is visible
// as an overwrite of the same alert record rather than a silent duplicate.
func DeriveAlertID(sourceRecordID string) string {
	return uuid.NewSHA1(alertNamespace, []byte(sourceRecordID)).String()
}

// New builds an alert for a source record with a deterministic ID.
func New(sourceRecordID string, severity event.Severity, source, title string) Alert {
	return Alert{
		AlertID:   DeriveAlertID(sourceRecordID),
		RecordID:  sourceRecordID,
		Severity:  severity,
		Source:    source,
		Title:     title,
		Timestamp: time.Now().UTC(),
	}
}

// ChannelsFor returns the delivery channels for a severity. Normal and
// unknown severities never route.
func ChannelsFor(severity event.Severity) []Channel {
	switch severity {
	case event.SeverityCritical:
		return []Channel{ChannelUrgent, ChannelTicket}
	case event.SeverityHigh:
		return []Channel{ChannelUrgent}
	case event.SeverityMedium, event.SeverityLow:
		return []Channel{ChannelStandard}
	default:
		return nil
	}
}
