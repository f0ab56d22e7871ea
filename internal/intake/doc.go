// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// Package intake is the synchronous accept path for processing actions.
//
// A submission is validated, copied verbatim to the backup sink and
// published to the action topic before the caller gets a receipt. The
// backup-then-publish sequence runs detached from the caller's context so a
// client hanging up cannot leave a backup without a queue message; it is
// bounded by the intake timeout instead.
//
// When publishing fails after the backup succeeded the returned
// TransientInfraError carries the backup key, and Replay re-publishes the
// newest backup copy of an action.
package intake
