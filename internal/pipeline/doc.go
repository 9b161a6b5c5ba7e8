// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package pipeline orchestrates telemetry processing over Watermill and NATS
// JetStream.
//
// All telemetry flows through JetStream before anything else sees it:
//
//	┌────────────┐  ┌────────────┐  ┌────────────┐
//	│  Security  │  │   Metric   │  │  Customer  │
//	│  emitters  │  │  emitters  │  │  emitters  │
//	└─────┬──────┘  └─────┬──────┘  └─────┬──────┘
//	      └───────────────┼───────────────┘
//	                      ▼
//	            ┌───────────────────┐
//	            │  NATS JetStream   │  ← durable event log
//	            │   telemetry.>     │
//	            └─────────┬─────────┘
//	                      ▼
//	            ┌───────────────────┐
//	            │     Processor     │  classify / detect
//	            └─────────┬─────────┘
//	          ┌───────────┼───────────┐
//	          ▼           ▼           ▼
//	     bronze puts  alert routes  window buffers
//	                                     │ every 60s
//	                                     ▼
//	                                silver puts
//
// Per consumed message the processor runs synchronously:
// decode, classify or detect-then-update, bronze store write, conditional
// alert dispatch, acknowledge. The ack happens only after the store write
// succeeds; with at-least-once delivery a crash between write and ack yields
// a duplicate bronze object (distinct record ID), never a lost event.
//
// Two background tasks run beside consumption: the aggregation task drains
// the sliding windows into silver-layer aggregations on a fixed interval, and
// the health task emits a periodic throughput report. They share only the
// baseline store and window buffers with the foreground path, both of which
// are lock-striped per (tenant, signal type).
//
// Key components:
//
//   - EmbeddedServer: optional in-process NATS JetStream server
//   - StreamInitializer: idempotent stream provisioning at startup
//   - Subscriber / Publisher: Watermill NATS bindings with reconnect handling
//   - Router: middleware chain (recoverer, retry, poison queue)
//   - Processor: the per-message enrichment flow
//   - AggregationTask / HealthTask: interval background work
package pipeline
