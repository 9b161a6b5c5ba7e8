// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package pipeline

import "errors"

// ErrNilStore is returned when a processor is created without an object store.
var ErrNilStore = errors.New("object store cannot be nil")

// ErrNilDispatcher is returned when a processor is created without a dispatcher.
var ErrNilDispatcher = errors.New("alert dispatcher cannot be nil")

// ErrMalformedPayload is returned when a consumed payload cannot be decoded
// at all. It routes the message to the poison queue after retry exhaustion.
var ErrMalformedPayload = errors.New("malformed payload")

// ErrPublisherClosed is returned when publishing through a closed publisher.
var ErrPublisherClosed = errors.New("publisher is closed")
