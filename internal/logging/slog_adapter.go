// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// SlogHandler implements slog.Handler on top of zerolog so that libraries
// which only speak slog (sutureslog) end up in the same log stream.
type SlogHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	prefix string
}

// NewSlogHandler wraps the global zerolog logger.
func NewSlogHandler() *SlogHandler {
	return &SlogHandler{logger: Logger()}
}

// NewSlogLogger returns an slog.Logger backed by the global zerolog logger.
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}

// Enabled implements slog.Handler.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogLevel(level) >= zerolog.GlobalLevel() && slogLevel(level) >= h.logger.GetLevel()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(slogLevel(record.Level))
	for _, a := range h.attrs {
		event = appendAttr(event, h.prefix, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		event = appendAttr(event, h.prefix, a)
		return true
	})
	event.Msg(record.Message)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &SlogHandler{logger: h.logger, attrs: merged, prefix: h.prefix}
}

// WithGroup implements slog.Handler. Groups are flattened into dotted keys.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, attrs: h.attrs, prefix: h.prefix + name + "."}
}

func appendAttr(event *zerolog.Event, prefix string, a slog.Attr) *zerolog.Event {
	a.Value = a.Value.Resolve()
	key := prefix + a.Key

	switch a.Value.Kind() {
	case slog.KindString:
		return event.Str(key, a.Value.String())
	case slog.KindInt64:
		return event.Int64(key, a.Value.Int64())
	case slog.KindUint64:
		return event.Uint64(key, a.Value.Uint64())
	case slog.KindFloat64:
		return event.Float64(key, a.Value.Float64())
	case slog.KindBool:
		return event.Bool(key, a.Value.Bool())
	case slog.KindDuration:
		return event.Dur(key, a.Value.Duration())
	case slog.KindTime:
		return event.Time(key, a.Value.Time())
	case slog.KindGroup:
		for _, ga := range a.Value.Group() {
			event = appendAttr(event, key+".", ga)
		}
		return event
	default:
		if err, ok := a.Value.Any().(error); ok && strings.EqualFold(a.Key, "error") {
			return event.AnErr(key, err)
		}
		return event.Interface(key, a.Value.Any())
	}
}

func slogLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
