// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

/*
Package middleware provides HTTP middleware shared by the operator and access
hosts.

Key Components:

  - RequestID: request and correlation ids for tracing
  - PrometheusMetrics: request instrumentation labelled by chi route pattern
  - SlowRequests: logs requests over a latency threshold
  - Compression: gzip for list responses
  - APIVersion, MaxBody, SecurityHeaders: response headers and body limits

All middleware has the chi signature func(http.Handler) http.Handler.

Middleware Stack:

The api package mounts them per host in this order:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics(host))
	r.Use(middleware.SlowRequests(time.Second))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.APIVersion(cfg.APIVersion))
	r.Use(middleware.MaxBody(cfg.MaxBodyBytes))

PrometheusMetrics reads the route pattern after the handler returns, when chi
has finished matching, so it may sit above the router's own middleware.

Thread Safety:

All middleware is stateless apart from the pooled gzip writers.

See Also:

  - internal/api: handlers and routers
  - internal/authz: admission middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware
