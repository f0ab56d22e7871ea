// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package logging

import (
	"github.com/rs/zerolog"
)

// redacted replaces sensitive values when verbose sensitive logging is off.
const redacted = "[redacted]"

// maxPayloadLog bounds how much of a payload is written even in verbose mode.
const maxPayloadLog = 4096

// VerboseSensitive reports whether subject identifiers and payloads may be logged.
func VerboseSensitive() bool {
	return verboseSensitive.Load()
}

// SetVerboseSensitive toggles sensitive logging at runtime.
func SetVerboseSensitive(enabled bool) {
	verboseSensitive.Store(enabled)
}

// Subject adds a subject identifier field to e, redacted unless verbose
// sensitive logging is enabled.
//
//	logging.Subject(logging.Info(), "subject_id", id).Msg("Lookup")
func Subject(e *zerolog.Event, key, value string) *zerolog.Event {
	if !VerboseSensitive() {
		return e.Str(key, redacted)
	}
	return e.Str(key, value)
}

// Payload adds a raw JSON payload to e. Without verbose sensitive logging only
// the payload size is recorded.
func Payload(e *zerolog.Event, key string, raw []byte) *zerolog.Event {
	if !VerboseSensitive() {
		return e.Int(key+"_bytes", len(raw))
	}
	if len(raw) > maxPayloadLog {
		return e.Str(key, string(raw[:maxPayloadLog])+"...").Bool(key+"_truncated", true)
	}
	return e.RawJSON(key, raw)
}

// MaskKey shortens an admission key for log output, keeping the first four
// characters so operators can tell keys apart.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****"
}
