// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Command processor runs the Sentinel telemetry pipeline: a durable NATS
// JetStream consumer that classifies security events, scores metric samples
// against rolling baselines, persists enriched records to the tiered store,
// aggregates sliding windows into silver-layer output, and routes
// high-severity findings to alert channels.
//
// Startup order: configuration, logging, tiered store, broker (embedded or
// external), stream provisioning, processing components, supervision tree.
// The process exits non-zero when the transport is unreachable at startup;
// it does not serve degraded.
//
// Configuration comes from built-in defaults, an optional YAML file, and
// SENTINEL_* environment variables; see internal/config.
package main
