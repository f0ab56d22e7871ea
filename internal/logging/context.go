// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	actionIDKey      contextKey = "action_id"
)

// GenerateCorrelationID returns a short identifier that ties the HTTP request,
// the queue message and the processor run of one submission together.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// GenerateRequestID returns a full UUID for a single HTTP request.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithCorrelationID returns a new context carrying id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation ID or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithActionID returns a new context carrying the action being handled.
func ContextWithActionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actionIDKey, id)
}

// ActionIDFromContext returns the action ID or "".
func ActionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actionIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger enriched with correlation_id, request_id and
// action_id when the context carries them.
//
//	logging.Ctx(ctx).Info().Msg("Action accepted")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx).Logger()
	return &l
}

// CtxWith returns a logger context pre-populated from ctx, for adding more fields.
func CtxWith(ctx context.Context) zerolog.Context {
	lc := With()
	if id := CorrelationIDFromContext(ctx); id != "" {
		lc = lc.Str("correlation_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id := ActionIDFromContext(ctx); id != "" {
		lc = lc.Str("action_id", id)
	}
	return lc
}
