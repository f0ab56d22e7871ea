// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package models defines the data types shared across the service.

# Processing actions

A Payload is what a caller submits. Intake wraps it in an ActionMessage with
a fresh actionId and registeredAt; the processor turns that into a Record
carrying the derived IndexKeys and expiresAt. Records never hold a raw
subject identifier, only its pseudonym.

Two timestamps are kept side by side and never collapsed:

  - occurredAt: business time supplied by the caller
  - registeredAt: server receipt time stamped by intake

# Error taxonomy

  - ValidationError: rejected before any write, never retried (400)
  - TransientInfraError: store, queue or backup unavailable (503)
  - ErrDuplicateSuppressed: the write converged, not a failure
  - PermanentProcessingError: dead-lettered immediately
  - ErrNotFound: absent key (404; success for deletes)

Inzage views (InzageObject, InzageAction) carry only the fields that may be
disclosed to a data subject.
*/
package models
