// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package config provides layered configuration management: built-in
// defaults, an optional YAML file, then environment variables, with
// environment taking precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the processor.
type Config struct {
	Transport TransportConfig `koanf:"transport"`
	Store     StoreConfig     `koanf:"store"`
	Detect    DetectConfig    `koanf:"detect"`
	Aggregate AggregateConfig `koanf:"aggregate"`
	Alert     AlertConfig     `koanf:"alert"`
	Ops       OpsConfig       `koanf:"ops"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TransportConfig configures the NATS JetStream transport.
type TransportConfig struct {
	// URL of the broker. Ignored when Embedded is true.
	URL string `koanf:"url"`

	// Embedded runs an in-process NATS server for single-instance
	// deployments.
	Embedded bool `koanf:"embedded"`

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`

	MaxMemory int64 `koanf:"max_memory"`
	MaxStore  int64 `koanf:"max_store"`

	// StreamName is the JetStream stream capturing telemetry subjects.
	StreamName string `koanf:"stream_name"`

	// SubjectPrefix roots the telemetry subject space, e.g. "telemetry"
	// captures telemetry.security.*, telemetry.metric.*, telemetry.customer.*.
	SubjectPrefix string `koanf:"subject_prefix"`

	RetentionDays int `koanf:"retention_days"`

	DurableName     string `koanf:"durable_name"`
	QueueGroup      string `koanf:"queue_group"`
	SubscriberCount int    `koanf:"subscriber_count"`

	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout"`

	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`

	PoisonQueueTopic string        `koanf:"poison_queue_topic"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
}

// StoreConfig configures the tiered object store.
type StoreConfig struct {
	// Path is the embedded BadgerDB directory.
	Path string `koanf:"path"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// DetectConfig configures baselining and anomaly thresholds.
type DetectConfig struct {
	// Retention caps the per-entity baseline sample window.
	Retention int `koanf:"retention"`

	// MinSamples is the warm-up floor below which detection is skipped.
	MinSamples int `koanf:"min_samples"`

	// Z-score thresholds, strictly increasing.
	MediumThreshold   float64 `koanf:"medium_threshold"`
	HighThreshold     float64 `koanf:"high_threshold"`
	CriticalThreshold float64 `koanf:"critical_threshold"`
}

// AggregateConfig configures the background aggregation task.
type AggregateConfig struct {
	// Interval between aggregation cycles.
	Interval time.Duration `koanf:"interval"`
}

// WebhookChannelConfig configures one alert webhook target. AuthToken may be
// stored encrypted with the "enc:" prefix; see CredentialEncryptor.
type WebhookChannelConfig struct {
	URL           string        `koanf:"url"`
	AuthToken     string        `koanf:"auth_token"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
}

// AlertConfig configures alert routing and delivery.
type AlertConfig struct {
	// SecretKey derives the AES key for encrypted webhook tokens. Required
	// only when a configured auth_token carries the "enc:" prefix.
	SecretKey string `koanf:"secret_key"`

	DedupCapacity int           `koanf:"dedup_capacity"`
	DedupTTL      time.Duration `koanf:"dedup_ttl"`

	// BusTopicPrefix enables republishing alerts onto the message bus under
	// <prefix>.<severity>. Empty disables the bus channel mirror.
	BusTopicPrefix string `koanf:"bus_topic_prefix"`

	Urgent   WebhookChannelConfig `koanf:"urgent"`
	Standard WebhookChannelConfig `koanf:"standard"`
	Ticket   WebhookChannelConfig `koanf:"ticket"`
}

// OpsConfig configures the operational HTTP server.
type OpsConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			URL:                  "nats://127.0.0.1:4222",
			Embedded:             true,
			StoreDir:             "/data/nats/jetstream",
			MaxMemory:            1 << 30,
			MaxStore:             10 << 30,
			StreamName:           "TELEMETRY",
			SubjectPrefix:        "telemetry",
			RetentionDays:        7,
			DurableName:          "telemetry-processor",
			QueueGroup:           "processors",
			SubscriberCount:      4,
			AckWaitTimeout:       30 * time.Second,
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
			PoisonQueueTopic:     "dlq.telemetry",
			CloseTimeout:         30 * time.Second,
		},
		Store: StoreConfig{
			Path:                    "/data/sentinel/store",
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Detect: DetectConfig{
			Retention:         1000,
			MinSamples:        50,
			MediumThreshold:   1.5,
			HighThreshold:     2.0,
			CriticalThreshold: 3.0,
		},
		Aggregate: AggregateConfig{
			Interval: 60 * time.Second,
		},
		Alert: AlertConfig{
			DedupCapacity:  10000,
			DedupTTL:       5 * time.Minute,
			BusTopicPrefix: "alerts",
		},
		Ops: OpsConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks cross-field constraints. It is called by Load; callers
// constructing a Config by hand should call it themselves.
func (c *Config) Validate() error {
	if !c.Transport.Embedded && c.Transport.URL == "" {
		return fmt.Errorf("transport: url is required when embedded server is disabled")
	}
	if c.Transport.StreamName == "" {
		return fmt.Errorf("transport: stream_name is required")
	}
	if c.Transport.SubjectPrefix == "" {
		return fmt.Errorf("transport: subject_prefix is required")
	}
	if c.Transport.SubscriberCount < 1 {
		return fmt.Errorf("transport: subscriber_count must be at least 1, got %d", c.Transport.SubscriberCount)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store: path is required")
	}

	if c.Detect.MinSamples < 2 {
		return fmt.Errorf("detect: min_samples must be at least 2, got %d", c.Detect.MinSamples)
	}
	if c.Detect.Retention < c.Detect.MinSamples {
		return fmt.Errorf("detect: retention %d is below min_samples %d", c.Detect.Retention, c.Detect.MinSamples)
	}
	if !(c.Detect.MediumThreshold < c.Detect.HighThreshold && c.Detect.HighThreshold < c.Detect.CriticalThreshold) {
		return fmt.Errorf("detect: thresholds must be strictly increasing (medium %.2f, high %.2f, critical %.2f)",
			c.Detect.MediumThreshold, c.Detect.HighThreshold, c.Detect.CriticalThreshold)
	}
	if c.Detect.MediumThreshold <= 0 {
		return fmt.Errorf("detect: medium_threshold must be positive, got %.2f", c.Detect.MediumThreshold)
	}

	if c.Aggregate.Interval <= 0 {
		return fmt.Errorf("aggregate: interval must be positive, got %s", c.Aggregate.Interval)
	}

	if c.Ops.Port < 1 || c.Ops.Port > 65535 {
		return fmt.Errorf("ops: port %d out of range", c.Ops.Port)
	}

	for name, wh := range map[string]WebhookChannelConfig{
		"urgent":   c.Alert.Urgent,
		"standard": c.Alert.Standard,
		"ticket":   c.Alert.Ticket,
	} {
		if wh.URL == "" && wh.AuthToken != "" {
			return fmt.Errorf("alert: %s channel has auth_token but no url", name)
		}
		if isEncrypted(wh.AuthToken) && c.Alert.SecretKey == "" {
			return fmt.Errorf("alert: %s channel token is encrypted but secret_key is unset", name)
		}
	}

	return nil
}
