// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package middleware

import (
	"net/http"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// DefaultSlowThreshold is the latency above which requests are logged.
const DefaultSlowThreshold = time.Second

// SlowRequests logs requests that take longer than threshold, with the
// route pattern and the request's tracing ids.
func SlowRequests(threshold time.Duration) func(http.Handler) http.Handler {
	if threshold <= 0 {
		threshold = DefaultSlowThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sw, r)

			if d := time.Since(start); d > threshold {
				logging.Ctx(r.Context()).Warn().
					Str("method", r.Method).
					Str("route", routePattern(r)).
					Int("status", sw.statusCode).
					Int64("duration_ms", d.Milliseconds()).
					Int64("threshold_ms", threshold.Milliseconds()).
					Msg("Slow request detected")
			}
		})
	}
}
