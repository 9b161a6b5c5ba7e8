// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package classify implements table-driven threat classification for
// discrete security events.
//
// This is deliberately a heuristic, explainable keyword matcher - not ML-based
// detection. The pattern table maps a threat category to the keywords that
// indicate it; every matching category is recorded and severity escalates with
// the match count. Deployments needing a trained classifier substitute their
// own Classifier implementation without touching the processor.
package classify

import (
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/sentinel/internal/event"
)

// Classification is the immutable result of classifying one security event.
// It is produced exactly once per envelope and never mutated afterwards.
type Classification struct {
	// DetectedCategories lists every matched threat category, sorted for
	// deterministic output.
	DetectedCategories []string `json:"detected_categories"`

	// Severity per the escalation policy: critical when two or more
	// categories matched or the input declared critical; high when exactly
	// one matched or the input declared high; low otherwise.
	Severity event.Severity `json:"severity"`

	// RiskScore is min(100, 25 per matched category). Derived, never set
	// by callers; any substitute scoring function must stay monotonic in
	// the match count and bounded to [0, 100].
	RiskScore int `json:"risk_score"`

	ClassifiedAt time.Time `json:"classified_at"`
}

// riskPerCategory is the score contribution of each matched category.
const riskPerCategory = 25

// maxRiskScore bounds the risk score.
const maxRiskScore = 100

// DefaultPatternTable returns the built-in category -> keywords table.
// Keywords are matched case-insensitively as substrings of the event's
// free-text fields.
func DefaultPatternTable() map[string][]string {
	return map[string][]string{
		"failed_login":         {"authentication failed", "login failed", "invalid credentials"},
		"malware":              {"virus detected", "trojan", "malware", "suspicious file"},
		"network_anomaly":      {"port scan", "ddos", "unusual traffic", "network intrusion"},
		"privilege_escalation": {"admin access", "privilege escalation", "unauthorized access"},
		"data_exfiltration":    {"large download", "data export", "file transfer", "sensitive data"},
	}
}

// Classifier tags security events with threat categories and a risk score.
// Classify is a pure function of the envelope and the pattern table: no I/O,
// deterministic, safe for concurrent use.
type Classifier struct {
	matcher *categoryMatcher
	now     func() time.Time
}

// NewClassifier creates a classifier with the default pattern table.
func NewClassifier() *Classifier {
	return NewClassifierWithTable(DefaultPatternTable())
}

// NewClassifierWithTable creates a classifier with a custom pattern table.
func NewClassifierWithTable(table map[string][]string) *Classifier {
	return &Classifier{
		matcher: newCategoryMatcher(table),
		now:     time.Now,
	}
}

// Classify produces the threat classification for one envelope.
//
// Malformed envelopes (failing ingress validation) yield the fail-open
// default: no categories, severity low, risk score zero. Under-alerting on
// unparseable input is preferred to raising and losing the event.
func (c *Classifier) Classify(env *event.Envelope) Classification {
	result := Classification{
		DetectedCategories: []string{},
		Severity:           event.SeverityLow,
		RiskScore:          0,
		ClassifiedAt:       c.now().UTC(),
	}

	if env == nil || env.Validate() != nil {
		return result
	}

	found := c.matcher.Categories(c.searchText(env))

	categories := make([]string, 0, len(found))
	for category := range found {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	result.DetectedCategories = categories
	result.RiskScore = riskScore(len(categories))
	result.Severity = severityFor(len(categories), event.ParseSeverity(env.Severity))

	return result
}

// searchText concatenates the envelope's free-text fields for matching.
func (c *Classifier) searchText(env *event.Envelope) string {
	var b strings.Builder
	b.WriteString(env.Description)
	b.WriteByte('\n')
	b.WriteString(env.SignalType)
	b.WriteByte('\n')
	b.WriteString(env.Source)
	for _, v := range env.Attributes {
		b.WriteByte('\n')
		b.WriteString(v)
	}
	return b.String()
}

// riskScore is monotonic in the match count and bounded to [0, maxRiskScore].
func riskScore(matched int) int {
	score := matched * riskPerCategory
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}

// severityFor applies the escalation policy.
func severityFor(matched int, declared event.Severity) event.Severity {
	switch {
	case matched >= 2 || declared == event.SeverityCritical:
		return event.SeverityCritical
	case matched == 1 || declared == event.SeverityHigh:
		return event.SeverityHigh
	default:
		return event.SeverityLow
	}
}
