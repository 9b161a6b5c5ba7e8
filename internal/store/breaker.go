// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package store

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/sentinel/internal/logging"
	"github.com/tomtom215/sentinel/internal/metrics"
)

// BreakerConfig configures circuit breaking for store writes.
type BreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string

	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval is the cyclic period for clearing counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureThreshold is the consecutive failure count that trips the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "tiered-store",
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStore wraps an ObjectStore with circuit breaker protection so a
// failing store fails fast instead of stalling the consumption loop. A
// rejected or failed put surfaces as an error; the caller withholds the ack
// and the transport redelivers.
type BreakerStore struct {
	inner   ObjectStore
	breaker *gobreaker.CircuitBreaker[any]
}

// NewBreakerStore wraps the store with a circuit breaker.
func NewBreakerStore(inner ObjectStore, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store circuit breaker state change")
			metrics.SetBreakerState(name, int(to))
		},
	}

	return &BreakerStore{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// Put persists the object through the breaker.
func (s *BreakerStore) Put(ctx context.Context, obj Object) error {
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.inner.Put(ctx, obj)
	})
	return err
}

// Close closes the wrapped store.
func (s *BreakerStore) Close() error {
	return s.inner.Close()
}

// State returns the current breaker state for health reporting.
func (s *BreakerStore) State() string {
	return s.breaker.State().String()
}
