// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import "errors"

// ErrNilPublisher is returned when attempting to create a publisher with nil input.
var ErrNilPublisher = errors.New("publisher cannot be nil")

// ErrUnknownBackend is returned for a queue backend other than badger or nats.
var ErrUnknownBackend = errors.New("unknown queue backend")

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")
