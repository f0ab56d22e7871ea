// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestConfidentialityValid(t *testing.T) {
	t.Parallel()

	for _, c := range []Confidentiality{ConfidentialityNormal, ConfidentialityConfidential, ConfidentialityLifted} {
		if !c.Valid() {
			t.Errorf("%q.Valid() = false, want true", c)
		}
	}
	if Confidentiality("geheim").Valid() {
		t.Error(`"geheim".Valid() = true, want false`)
	}
}

func TestRecordJSONFlattensPayload(t *testing.T) {
	t.Parallel()

	r := Record{
		ActionID:     "A1",
		RegisteredAt: time.Date(2024, 4, 5, 13, 35, 43, 0, time.UTC),
		Payload: Payload{
			ActionName:      "Inzien",
			ActivityID:      "5f0bef4c",
			Confidentiality: ConfidentialityNormal,
			OccurredAt:      time.Date(2024, 4, 5, 13, 35, 42, 0, time.UTC),
		},
	}
	b, err := json.Marshal(&r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out := string(b)
	for _, want := range []string{`"actionId":"A1"`, `"actionName":"Inzien"`, `"confidentiality":"normaal"`} {
		if !strings.Contains(out, want) {
			t.Errorf("json missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, `"Payload"`) {
		t.Errorf("embedded payload should be flattened: %s", out)
	}
}

func TestRecordExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := now.Add(-time.Minute)
	r := Record{}
	if r.Expired(now) {
		t.Error("record without expiresAt reported expired")
	}
	r.ExpiresAt = &past
	if !r.Expired(now) {
		t.Error("record with past expiresAt not reported expired")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	transient := fmt.Errorf("publish: %w", NewTransientInfraError("queue", "enqueue", cause))
	if !IsTransient(transient) {
		t.Error("IsTransient = false for wrapped TransientInfraError")
	}
	if !errors.Is(transient, cause) {
		t.Error("TransientInfraError does not unwrap to its cause")
	}

	permanent := fmt.Errorf("handle: %w", NewPermanentProcessingError("retention elapsed", nil))
	if !IsPermanent(permanent) {
		t.Error("IsPermanent = false for wrapped PermanentProcessingError")
	}
	if IsPermanent(transient) {
		t.Error("IsPermanent = true for a transient error")
	}

	ve := NewValidationError("actionName", "actionName is required")
	if !IsValidation(fmt.Errorf("decode: %w", ve)) {
		t.Error("IsValidation = false for wrapped ValidationError")
	}
	if got, want := ve.Error(), "validation failed: actionName is required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFilterMatch(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 4, 5, 12, 0, 0, 0, time.UTC)
	r := &Record{Payload: Payload{OccurredAt: at, ActivityID: "act-1", Confidentiality: ConfidentialityNormal}}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"inclusive bounds", Filter{From: at, To: at}, true},
		{"before range", Filter{From: at.Add(time.Second)}, false},
		{"after range", Filter{To: at.Add(-time.Second)}, false},
		{"activity match", Filter{ActivityID: "act-1"}, true},
		{"activity mismatch", Filter{ActivityID: "act-2"}, false},
		{"confidentiality mismatch", Filter{Confidentiality: ConfidentialityConfidential}, false},
	}
	for _, tt := range tests {
		if got := tt.filter.Match(r); got != tt.want {
			t.Errorf("%s: Match() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
