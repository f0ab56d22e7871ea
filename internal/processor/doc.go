// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package processor materialises queued action messages into the record
// store.
//
// Handle runs as a Watermill consumer handler. It decodes the message,
// applies the write-time checks, derives the index keys, pseudonymises the
// subject identifiers and upserts the record through a circuit breaker.
//
// Error mapping:
//
//	decode / validation / retention elapsed -> PermanentProcessingError (dead-lettered at once)
//	store failure or open breaker           -> TransientInfraError (nacked, redelivered)
//	stale or duplicate upsert               -> nil (acked, counted as suppressed)
package processor
