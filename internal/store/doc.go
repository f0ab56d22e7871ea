// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package store implements the Record Store on BadgerDB.

One record is kept per action id. Three alternate indexes serve the lookup
patterns of the query and inzage services:

  - subject: objectType:subjectIdKind:pseudonym
  - activity: the processing activity id
  - processed object: the UUIDv5 object id

Index entries sort by registeredAt and then by action id, so a list query
returns records in registration order. Filters on occurredAt, activity and
confidentiality are applied while iterating; pages are continued with an
opaque cursor.

# Convergence

Upsert is last-write-wins on registeredAt. Redelivering a message, or
delivering an old create after an amend, returns models.ErrDuplicateSuppressed
and changes nothing. Delete leaves a tombstone for TombstoneTTL; upserts
registered before the delete are suppressed while it exists.

# Retention

A record with expiresAt is written with a badger TTL, together with its index
entries. Expired records disappear from reads even before compaction removes
them. GCService reclaims value log space in the background.
*/
package store
