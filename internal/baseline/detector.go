// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package baseline

import (
	"math"

	"github.com/tomtom215/sentinel/internal/event"
)

// Result is the outcome of scoring one sample against its baseline.
// It is derived state: always attached to an enriched record, never stored
// independently.
type Result struct {
	IsAnomaly bool           `json:"is_anomaly"`
	Severity  event.Severity `json:"severity"`

	// ZScore is the number of standard deviations the value sits from the
	// baseline mean. Derived, never set directly by callers.
	ZScore float64 `json:"z_score"`

	// BaselineAvailable is false while the entity is still warming up.
	// Insufficient data is not an error condition.
	BaselineAvailable bool `json:"baseline_available"`

	// Context for alert messages and downstream filtering.
	BaselineMean     float64 `json:"baseline_mean,omitempty"`
	BaselineStdDev   float64 `json:"baseline_stddev,omitempty"`
	CurrentValue     float64 `json:"current_value"`
	DeviationPercent float64 `json:"deviation_percent,omitempty"`
}

// Thresholds holds the z-score ladder for anomaly severity.
type Thresholds struct {
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// DefaultThresholds returns the standard z-score ladder.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 1.5, High: 2, Critical: 3}
}

// Detector scores metric samples against the baseline store.
//
// Detect must run BEFORE Update for the same sample: a value must never be
// tested against a baseline it has itself already shifted. That ordering is a
// correctness invariant owned by the processor, which is why Detect only
// reads and never mutates.
type Detector struct {
	store      *Store
	thresholds Thresholds
}

// NewDetector creates a detector over the given store.
func NewDetector(store *Store, thresholds Thresholds) *Detector {
	if thresholds.Critical == 0 && thresholds.High == 0 && thresholds.Medium == 0 {
		thresholds = DefaultThresholds()
	}
	return &Detector{store: store, thresholds: thresholds}
}

// Detect scores value for the entity. When the baseline is not yet available
// the result reports baseline_available=false and is never an anomaly.
func (d *Detector) Detect(tenantID, signalType string, value float64) Result {
	b, ok := d.store.Snapshot(tenantID, signalType)
	if !ok {
		return Result{
			Severity:     event.SeverityNormal,
			CurrentValue: value,
		}
	}

	z := 0.0
	if b.StdDev > 0 {
		z = math.Abs(value-b.Mean) / b.StdDev
	}

	severity := d.severityFor(z)

	deviation := 0.0
	if b.Mean != 0 {
		deviation = math.Abs(value-b.Mean) / math.Abs(b.Mean) * 100
	}

	return Result{
		IsAnomaly:         severity != event.SeverityNormal,
		Severity:          severity,
		ZScore:            z,
		BaselineAvailable: true,
		BaselineMean:      b.Mean,
		BaselineStdDev:    b.StdDev,
		CurrentValue:      value,
		DeviationPercent:  deviation,
	}
}

func (d *Detector) severityFor(z float64) event.Severity {
	switch {
	case z > d.thresholds.Critical:
		return event.SeverityCritical
	case z > d.thresholds.High:
		return event.SeverityHigh
	case z > d.thresholds.Medium:
		return event.SeverityMedium
	default:
		return event.SeverityNormal
	}
}
