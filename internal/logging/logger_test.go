// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want %q", cfg.Level, "info")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.VerboseSensitive {
		t.Error("VerboseSensitive should default to false")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("k", "v").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"k":"v"`) {
		t.Errorf("output missing field: %s", out)
	}
}

func TestCtxAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithCorrelationID(context.Background(), "corr1234")
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithActionID(ctx, "A1")

	Ctx(ctx).Info().Msg("with context")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"corr1234"`, `"request_id":"req-1"`, `"action_id":"A1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestContextAccessorsEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("CorrelationIDFromContext = %q, want empty", got)
	}
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext = %q, want empty", got)
	}
	if got := ActionIDFromContext(ctx); got != "" {
		t.Errorf("ActionIDFromContext = %q, want empty", got)
	}
	if got := len(GenerateCorrelationID()); got != 8 {
		t.Errorf("len(GenerateCorrelationID()) = %d, want 8", got)
	}
}

func TestSubjectRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestLogger(&buf)

	SetVerboseSensitive(false)
	Subject(l.Info(), "subject_id", "1234567").Msg("lookup")
	if strings.Contains(buf.String(), "1234567") {
		t.Errorf("subject leaked without verbose logging: %s", buf.String())
	}

	buf.Reset()
	SetVerboseSensitive(true)
	defer SetVerboseSensitive(false)
	Subject(l.Info(), "subject_id", "1234567").Msg("lookup")
	if !strings.Contains(buf.String(), "1234567") {
		t.Errorf("subject missing with verbose logging: %s", buf.String())
	}
}

func TestPayloadRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestLogger(&buf)

	SetVerboseSensitive(false)
	Payload(l.Info(), "payload", []byte(`{"subjectId":"1234567"}`)).Msg("received")

	out := buf.String()
	if strings.Contains(out, "1234567") {
		t.Errorf("payload leaked without verbose logging: %s", out)
	}
	if !strings.Contains(out, `"payload_bytes":23`) {
		t.Errorf("payload size missing: %s", out)
	}
}

func TestMaskKey(t *testing.T) {
	t.Parallel()

	if got := MaskKey("short"); got != "****" {
		t.Errorf("MaskKey(short) = %q, want ****", got)
	}
	if got := MaskKey("abcdefghijkl"); got != "abcd****" {
		t.Errorf("MaskKey = %q, want abcd****", got)
	}
}

func TestWatermillLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	wl := NewWatermillLoggerWith(NewTestLogger(&buf))

	wl.With(watermill.LogFields{"topic": "actions"}).
		Error("handler failed", errors.New("boom"), watermill.LogFields{"attempt": 2})

	out := buf.String()
	for _, want := range []string{`"topic":"actions"`, `"attempt":2`, `"error":"boom"`, `"message":"handler failed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandlerRoutesToZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := NewSlogLogger().WithGroup("svc")
	slogger.Info("service restarted", "name", "processor", "attempt", 3)

	out := buf.String()
	if !strings.Contains(out, `"svc.name":"processor"`) {
		t.Errorf("grouped attribute missing: %s", out)
	}
	if !strings.Contains(out, `"svc.attempt":3`) {
		t.Errorf("int attribute missing: %s", out)
	}
}
