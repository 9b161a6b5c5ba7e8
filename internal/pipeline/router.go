// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/sentinel/internal/config"
	"github.com/tomtom215/sentinel/internal/metrics"
)

// Router wraps the Watermill router with the pipeline middleware chain,
// outer to inner:
//
//  1. Recoverer: handler panics become errors instead of crashes
//  2. Retry: exponential backoff for transient failures
//  3. Poison queue: messages still failing after retries move to the poison
//     topic and the original is acked, unblocking the consumer group
//
// Ack/nack is driven by the handler's return value; the handler itself never
// touches the message lifecycle.
type Router struct {
	router *message.Router
}

// NewRouter builds the router from transport config. poisonPublisher may be
// nil to disable the poison queue (tests only).
func NewRouter(cfg config.TransportConfig, poisonPublisher message.Publisher, logger watermill.LoggerAdapter) (*Router, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryCount,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		Logger:          logger,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poison, err := middleware.PoisonQueue(&poisonCountingPublisher{inner: poisonPublisher}, cfg.PoisonQueueTopic)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poison)
	}

	return &Router{router: wmRouter}, nil
}

// AddConsumerHandler registers a no-output handler for a topic.
func (r *Router) AddConsumerHandler(name, topic string, subscriber message.Subscriber, handler message.NoPublishHandlerFunc) {
	r.router.AddConsumerHandler(name, topic, subscriber, handler)
}

// Run starts the router and blocks until the context is canceled. Satisfies
// suture.Service.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running closes when all handlers are consuming.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for in-flight handlers.
func (r *Router) Close() error {
	return r.router.Close()
}

// poisonCountingPublisher counts poison-queue writes on top of the wrapped
// publisher.
type poisonCountingPublisher struct {
	inner message.Publisher
}

func (p *poisonCountingPublisher) Publish(topic string, msgs ...*message.Message) error {
	if err := p.inner.Publish(topic, msgs...); err != nil {
		return err
	}
	metrics.PoisonedMessages.Inc()
	return nil
}

func (p *poisonCountingPublisher) Close() error {
	return p.inner.Close()
}
