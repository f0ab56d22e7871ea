// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator that reports JSON field names
// and registers two custom tags:
//
//   - iso8601duration: a retention period such as P10Y or P1Y6M
//   - confidentiality: one of normaal, vertrouwelijk, opgeheven
//
// # Two levels of checks
//
// Intake runs DecodePayload: strict JSON decoding plus the struct rules.
// A failure is a ValidationError and nothing is written.
//
// The processor additionally runs CheckWriteTime against the registration
// time. Those checks can only be made once registeredAt is fixed:
//
//   - occurredAt may not lie after registeredAt (beyond MaxClockSkew)
//   - the retention period may not have elapsed already
//
// On the queued path a write-time failure is dead-lettered as a
// PermanentProcessingError. On the synchronous amend path it is returned to
// the caller as 422.
//
// # Example
//
//	p, err := validation.DecodePayload(body)
//	if err != nil {
//	    // *models.ValidationError, respond 400
//	}
package validation
