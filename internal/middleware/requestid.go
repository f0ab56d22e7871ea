// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package middleware

import (
	"net/http"
	"strings"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// Request tracing headers.
const (
	RequestIDHeader     = "X-Request-ID"
	CorrelationIDHeader = "X-Correlation-ID"
)

// maxTraceIDLen bounds caller supplied ids before they reach the logs.
const maxTraceIDLen = 128

// RequestID assigns every request a request id and a correlation id. Ids
// supplied by an upstream proxy or caller are kept when they are sane. Both
// are echoed in the response and carried in the request context, where the
// logging package and the intake service pick them up.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := traceID(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}
		correlationID := traceID(r.Header.Get(CorrelationIDHeader))
		if correlationID == "" {
			correlationID = requestID
		}

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// traceID returns id if it is short and printable, and "" otherwise.
func traceID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxTraceIDLen {
		return ""
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7E {
			return ""
		}
	}
	return id
}
