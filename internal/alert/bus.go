// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package alert

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
)

// BusNotifier publishes alerts onto the message bus so external responders
// can subscribe without the pipeline knowing about them. The topic carries
// the severity, letting subscribers filter with a single subject.
type BusNotifier struct {
	name      string
	publisher message.Publisher
	prefix    string
}

// NewBusNotifier creates a bus-backed notifier. Topic is prefix + "." +
// severity, e.g. "alerts.critical".
func NewBusNotifier(name, topicPrefix string, publisher message.Publisher) *BusNotifier {
	if topicPrefix == "" {
		topicPrefix = "alerts"
	}
	return &BusNotifier{name: name, publisher: publisher, prefix: topicPrefix}
}

// Name returns the configured notifier name.
func (n *BusNotifier) Name() string {
	return n.name
}

// Notify publishes the alert. The message UUID is the alert ID so downstream
// consumers can deduplicate redeliveries.
func (n *BusNotifier) Notify(_ context.Context, a Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("bus %s: marshal alert: %w", n.name, err)
	}

	msg := message.NewMessage(a.AlertID, payload)
	msg.Metadata.Set("severity", string(a.Severity))
	msg.Metadata.Set("tenant_id", a.TenantID)

	topic := n.prefix + "." + string(a.Severity)
	if err := n.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("bus %s: publish %s: %w", n.name, topic, err)
	}
	return nil
}
