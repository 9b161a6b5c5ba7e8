// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/sentinel/internal/config"
)

// JetStreamContext is the subset of jetstream.JetStream used for stream
// provisioning, narrowed so tests can substitute a mock.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamInitializer provisions the telemetry stream before publishers and
// subscribers start. Subjects cover the whole telemetry space plus the poison
// topic, so poisoned messages stay on the same durable log.
type StreamInitializer struct {
	js  JetStreamContext
	cfg config.TransportConfig
}

// NewStreamInitializer creates an initializer for the configured stream.
func NewStreamInitializer(js JetStreamContext, cfg config.TransportConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, fmt.Errorf("JetStream context required")
	}
	return &StreamInitializer{js: js, cfg: cfg}, nil
}

// EnsureStream creates or updates the stream. Idempotent: safe to call on
// every startup.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name: s.cfg.StreamName,
		// The poison topic lives under dlq., outside the consumed
		// telemetry wildcard, so poisoned messages never loop back in.
		Subjects: []string{
			s.cfg.SubjectPrefix + ".>",
			"alerts.>",
			"dlq.>",
		},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      time.Duration(s.cfg.RetentionDays) * 24 * time.Hour,
		MaxBytes:    s.cfg.MaxStore,
		Duplicates:  2 * time.Minute,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
		AllowDirect: true,
	}

	_, err := s.js.Stream(ctx, s.cfg.StreamName)
	if err == nil {
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", s.cfg.StreamName, err)
		}
		return stream, nil
	}

	if errors.Is(err, jetstream.ErrStreamNotFound) {
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", s.cfg.StreamName, err)
		}
		return stream, nil
	}

	return nil, fmt.Errorf("check stream %s: %w", s.cfg.StreamName, err)
}

// IsHealthy reports whether the stream exists and is reachable.
func (s *StreamInitializer) IsHealthy(ctx context.Context) bool {
	_, err := s.js.Stream(ctx, s.cfg.StreamName)
	return err == nil
}
