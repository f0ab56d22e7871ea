// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

// @title Verwerkingenlog API
// @version 1.0.0
// @description Audit log of processing actions on personal data.
// @description
// @description ## Hosts
// @description
// @description The operator host accepts, amends, patches, reads and deletes actions and
// @description manages the dead-letter partition. The access host serves data subjects the list
// @description of processed objects recorded about them. Confidential actions are never
// @description disclosed on the access host.
// @description
// @description ## Admission
// @description
// @description Every route except /healthz, /metrics and /swagger/ needs a key in the X-API-Key
// @description header. A missing key is answered with 401, an unknown key or a key of
// @description the other host with 403.
// @description
// @description ## Errors
// @description
// @description Errors are RFC 9457 problem documents (application/problem+json).
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @securityDefinitions.apikey APIKey
// @in header
// @name X-API-Key
//
// @tag.name Actions
// @tag.description Processing actions on the operator host
//
// @tag.name Dead Letters
// @tag.description Dead-letter inspection, redrive and purge
//
// @tag.name Backups
// @tag.description Replay of backup copies
//
// @tag.name Health
// @tag.description Service health
//
// @tag.name Inzage
// @tag.description Data subject access on the access host
package main
