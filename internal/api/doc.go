// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package api provides the HTTP API of the processing-action log.

Two hosts are served from one Handler, each with its own chi router:

  - Operator host (role operator): /actions, /dead-letters, /backups
  - Access host (role inzage): /processed-objects

Both hosts expose /healthz without an admission key. The operator host also
serves /metrics when enabled.

Middleware Stack:

Every request passes, in order:

 1. Request and correlation IDs (internal/middleware)
 2. Real IP, Prometheus metrics, slow request logging, panic recovery
 3. Security headers and the API-Version header
 4. CORS (go-chi/cors), only when origins are configured

Routes requiring a key then pass:

 1. Host-wide rate limit (go-chi/httprate)
 2. Admission: key lookup and Casbin policy (internal/authz)
 3. Per-key token bucket (golang.org/x/time/rate)
 4. Request body limit

Errors:

All errors are RFC 9457 problem documents (application/problem+json). The
error taxonomy maps as follows:

	ValidationError           400 (422 for write-time checks)
	missing admission key     401
	unknown or unpermitted    403
	not found                 404
	rate limited              429 with Retry-After
	TransientInfraError       503 with Retry-After

A 503 from intake carries the backupKey of the stored copy so the action
can be replayed with POST /backups/{actionId}/replay.

Example:

	h := api.NewHandler(api.Deps{Intake: in, Query: q, Inzage: iz, ...})
	router := api.NewRouter(h, admission, api.RouterConfigFrom(cfg))
	operator := router.OperatorHandler()
	access := router.AccessHandler()
*/
package api
