// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package backup implements the Backup Sink: an append-only store of every
// submission exactly as it was received.
//
// Intake writes an entry before it acknowledges a submission, and the
// synchronous amend writes one before it touches the record store. An entry
// can be replayed onto the queue when the enqueue that followed it failed.
//
// # Keys
//
//	<prefix>/actions/<actionId>/<receivedAt>-<kind>.json
//
// receivedAt is the UTC registration time in KeyTimeFormat, so the keys of
// one action sort chronologically and Latest is the last key. kind is
// create or amend. Existing keys are never overwritten; Put returns
// ErrExists instead.
//
// # Backends
//
//   - local: files below a directory. Writes use O_EXCL, fsync and a link
//     into place. Pruner enforces the retention period (90 days by default).
//   - s3: any S3-compatible store through aws-sdk-go-v2. Writes are
//     conditional on If-None-Match and pass through a circuit breaker.
//     Retention is left to bucket lifecycle rules.
package backup
