// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package logging provides the process-wide zerolog logger for Verwerkingenlog.
//
// All packages log through the package-level helpers so that a single call to
// Init (from cmd/server) configures level, format and output everywhere:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("action_id", id).Msg("Action accepted")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Backup write failed")
//
// # Sensitive data
//
// Processing actions describe personal data. Subject identifiers and request
// payloads are only written to the log when verbose sensitive logging is
// switched on (LOGGING_VERBOSE_SENSITIVE=true). Use Subject and Payload to add
// such values; they emit a redacted placeholder otherwise.
//
// # Adapters
//
// Two adapters route third-party logging into zerolog:
//   - NewSlogLogger for suture/sutureslog
//   - NewWatermillLogger for the Watermill router, publishers and subscribers
package logging
