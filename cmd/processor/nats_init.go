// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package main

import (
	"context"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/sentinel/internal/config"
	"github.com/tomtom215/sentinel/internal/logging"
	"github.com/tomtom215/sentinel/internal/pipeline"
)

// transport bundles the broker-side components whose lifetimes are tied
// together: the optional embedded server, the provisioning connection, and
// the Watermill subscriber/publisher pair.
type transport struct {
	embedded   *pipeline.EmbeddedServer
	conn       *natsgo.Conn
	subscriber *pipeline.Subscriber
	publisher  *pipeline.Publisher
}

// initTransport brings up the broker path in dependency order: embedded
// server (if configured), provisioning connection, stream, then the
// Watermill bindings. Any failure here is fatal; the pipeline never runs
// without its transport.
func initTransport(ctx context.Context, cfg *config.Config) (*transport, error) {
	t := &transport{}

	if cfg.Transport.Embedded {
		srv, err := pipeline.NewEmbeddedServer(cfg.Transport)
		if err != nil {
			return nil, fmt.Errorf("start embedded broker: %w", err)
		}
		t.embedded = srv
		cfg.Transport.URL = srv.ClientURL()
		logging.Info().Str("url", srv.ClientURL()).Msg("embedded NATS server started")
	}

	conn, err := natsgo.Connect(cfg.Transport.URL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.Timeout(10*time.Second),
	)
	if err != nil {
		t.close()
		return nil, fmt.Errorf("connect to broker %s: %w", cfg.Transport.URL, err)
	}
	t.conn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		t.close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	initializer, err := pipeline.NewStreamInitializer(js, cfg.Transport)
	if err != nil {
		t.close()
		return nil, err
	}
	if _, err := initializer.EnsureStream(ctx); err != nil {
		t.close()
		return nil, fmt.Errorf("provision stream: %w", err)
	}
	logging.Info().Str("stream", cfg.Transport.StreamName).Msg("JetStream stream provisioned")

	wmLogger := logging.NewWatermillAdapter()

	t.publisher, err = pipeline.NewPublisher(cfg.Transport, wmLogger)
	if err != nil {
		t.close()
		return nil, fmt.Errorf("create publisher: %w", err)
	}

	t.subscriber, err = pipeline.NewSubscriber(cfg.Transport, wmLogger)
	if err != nil {
		t.close()
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	return t, nil
}

// close tears down in reverse order. Safe on partially built transports.
func (t *transport) close() {
	if t.subscriber != nil {
		if err := t.subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("close subscriber")
		}
	}
	if t.publisher != nil {
		if err := t.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("close publisher")
		}
	}
	if t.conn != nil {
		t.conn.Close()
	}
	if t.embedded != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := t.embedded.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("shutdown embedded broker")
		}
	}
}

// ready reports transport readiness for /readyz.
func (t *transport) ready() bool {
	if t.conn == nil || !t.conn.IsConnected() {
		return false
	}
	if t.embedded != nil && !t.embedded.IsRunning() {
		return false
	}
	return true
}
