// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package store persists enriched records and aggregations into the tiered
// data lake as partitioned object puts.
//
// The partition scheme is
//
//	{category}/date={YYYY/MM/DD}/hour={HH}/[customer={tenant}/][window={w}/]{record_id}.json
//
// with category one of security-events, application-metrics, or
// aggregated-metrics. Every write carries descriptive metadata tags so
// downstream consumers can filter without reading object bodies.
//
// The production blob store is an external collaborator; ObjectStore is the
// interface boundary. The bundled BadgerStore implements it for
// single-instance deployments the same way the embedded NATS server stands in
// for an external broker.
package store

import (
	"context"
	"fmt"
	"time"
)

// Category partitions the data lake by record type.
type Category string

const (
	// CategorySecurityEvents holds bronze security-classification records.
	CategorySecurityEvents Category = "security-events"

	// CategoryApplicationMetrics holds bronze metric records.
	CategoryApplicationMetrics Category = "application-metrics"

	// CategoryAggregatedMetrics holds silver windowed aggregations.
	CategoryAggregatedMetrics Category = "aggregated-metrics"
)

// Metadata tag names attached to every object put.
const (
	MetaEventType  = "event-type"
	MetaSeverity   = "severity"
	MetaRiskScore  = "risk-score"
	MetaTenantID   = "customer-id"
	MetaSignalType = "signal-type"
	MetaWindow     = "window"
	MetaProcessor  = "processor"
)

// ObjectKey locates one object in the partition scheme.
type ObjectKey struct {
	Category  Category
	Timestamp time.Time

	// TenantID adds the optional customer={tenant} segment.
	TenantID string

	// Window adds the optional window={w} segment (silver layer only).
	Window string

	RecordID string
}

// String renders the partitioned object path.
func (k ObjectKey) String() string {
	ts := k.Timestamp.UTC()
	path := fmt.Sprintf("%s/date=%s/hour=%s/", k.Category, ts.Format("2006/01/02"), ts.Format("15"))
	if k.TenantID != "" {
		path += "customer=" + k.TenantID + "/"
	}
	if k.Window != "" {
		path += "window=" + k.Window + "/"
	}
	return path + k.RecordID + ".json"
}

// Object is one write unit: a partitioned key, the JSON payload, and the
// metadata tags.
type Object struct {
	Key      ObjectKey
	Payload  []byte
	Metadata map[string]string
}

// ObjectStore is the tiered-store boundary. Implementations must observe
// context cancellation promptly: an in-flight put abandoned at shutdown is
// redelivered by the transport, never lost.
type ObjectStore interface {
	// Put persists one object. A returned error means the caller must not
	// acknowledge the source message.
	Put(ctx context.Context, obj Object) error

	// Close releases store resources.
	Close() error
}
