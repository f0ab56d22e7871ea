// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package indexkey

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/verwerkingenlog/internal/models"
)

func testPayload() *models.Payload {
	return &models.Payload{
		ActionName:      "Inzien",
		ActivityID:      "5f0bef4c-f66f-4311-84a5-19e8bf359eaf",
		Confidentiality: models.ConfidentialityNormal,
		RetentionPeriod: "P10Y",
		OccurredAt:      time.Date(2024, 4, 5, 14, 35, 42, 0, time.FixedZone("CET", 3600)),
		ProcessedObjects: []models.ProcessedObject{
			{ObjectType: "person", SubjectIDKind: "BSN", SubjectID: "1234567"},
			{ObjectType: "person", SubjectIDKind: "BSN", SubjectID: "7654321"},
		},
	}
}

func TestPseudonym(t *testing.T) {
	t.Parallel()

	p := Pseudonym("1234567")
	if len(p) != 64 {
		t.Fatalf("len(Pseudonym) = %d, want 64", len(p))
	}
	if p != Pseudonym("1234567") {
		t.Error("Pseudonym is not deterministic")
	}
	if p == Pseudonym("1234568") {
		t.Error("different inputs produced the same pseudonym")
	}
	// Published SHA3-256 test vector for the empty string.
	if got, want := Pseudonym(""), "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"; got != want {
		t.Errorf("Pseudonym(\"\") = %s, want %s", got, want)
	}
}

func TestSubjectKey(t *testing.T) {
	t.Parallel()

	got := SubjectKey("person", "BSN", "1234567")
	want := "person:BSN:" + Pseudonym("1234567")
	if got != want {
		t.Errorf("SubjectKey = %q, want %q", got, want)
	}
	if strings.Contains(got, "1234567") {
		t.Error("SubjectKey leaks the raw subject id")
	}
}

func TestProcessedObjectIDStable(t *testing.T) {
	t.Parallel()

	sk := SubjectKey("person", "BSN", "1234567")
	id := ProcessedObjectID(sk)
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("ProcessedObjectID is not a UUID: %v", err)
	}
	if parsed.Version() != 5 {
		t.Errorf("UUID version = %d, want 5", parsed.Version())
	}
	if id != ProcessedObjectID(sk) {
		t.Error("ProcessedObjectID is not stable")
	}
	if id == ProcessedObjectID(SubjectKey("person", "BSN", "7654321")) {
		t.Error("distinct subjects share a processed object id")
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	p := testPayload()
	keys := Derive(p)

	if keys.ActivityID != p.ActivityID {
		t.Errorf("ActivityID = %q, want %q", keys.ActivityID, p.ActivityID)
	}
	if keys.ProcessingID != p.ProcessingID {
		t.Errorf("ProcessingID = %q, want %q", keys.ProcessingID, p.ProcessingID)
	}
	if len(keys.SubjectKeys) != 2 || len(keys.ProcessedObjectIDs) != 2 {
		t.Fatalf("got %d subject keys and %d object ids, want 2 each", len(keys.SubjectKeys), len(keys.ProcessedObjectIDs))
	}
	for i, o := range p.ProcessedObjects {
		sk := SubjectKey(o.ObjectType, o.SubjectIDKind, o.SubjectID)
		if keys.SubjectKeys[i] != sk {
			t.Errorf("SubjectKeys[%d] = %q, want %q", i, keys.SubjectKeys[i], sk)
		}
		if keys.ProcessedObjectIDs[i] != ProcessedObjectID(sk) {
			t.Errorf("ProcessedObjectIDs[%d] mismatch", i)
		}
	}
}

func TestUnique(t *testing.T) {
	t.Parallel()

	got := Unique([]string{"b", "a", "b", "c", "a"})
	if strings.Join(got, ",") != "b,a,c" {
		t.Errorf("Unique = %v, want [b a c]", got)
	}
}

func TestParseSubject(t *testing.T) {
	t.Parallel()

	typ, kind, id, err := ParseSubject("person:BSN:1234567")
	if err != nil {
		t.Fatalf("ParseSubject error = %v", err)
	}
	if typ != "person" || kind != "BSN" || id != "1234567" {
		t.Errorf("ParseSubject = %q %q %q", typ, kind, id)
	}

	_, _, id, err = ParseSubject("zaak:URN:urn:nl:zaak:1")
	if err != nil || id != "urn:nl:zaak:1" {
		t.Errorf("ParseSubject kept id = %q, err = %v; want urn:nl:zaak:1", id, err)
	}

	for _, bad := range []string{"", "person", "person:BSN", "person::1", ":BSN:1"} {
		if _, _, _, err := ParseSubject(bad); err == nil {
			t.Errorf("ParseSubject(%q) = nil error, want error", bad)
		}
	}
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()

	p := testPayload()
	exp, err := ExpiresAt(p)
	if err != nil {
		t.Fatalf("ExpiresAt error = %v", err)
	}
	want := time.Date(2034, 4, 5, 13, 35, 42, 0, time.UTC)
	if exp == nil || !exp.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", exp, want)
	}

	p.RetentionPeriod = ""
	exp, err = ExpiresAt(p)
	if err != nil || exp != nil {
		t.Errorf("ExpiresAt without retention = %v, %v; want nil, nil", exp, err)
	}

	p.RetentionPeriod = "ten years"
	if _, err := ExpiresAt(p); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("ExpiresAt(bad) error = %v, want ErrInvalidDuration", err)
	}
}

func TestParseISODuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Duration
	}{
		{"P10Y", Duration{Years: 10}},
		{"P1Y2M10D", Duration{Years: 1, Months: 2, Days: 10}},
		{"P3W", Duration{Weeks: 3}},
		{"PT36H", Duration{Hours: 36}},
		{"P1DT2H30M", Duration{Days: 1, Hours: 2, Minutes: 30}},
		{"PT1.5S", Duration{Seconds: 1.5}},
		{"PT0,5S", Duration{Seconds: 0.5}},
		{"P1MT1M", Duration{Months: 1, Minutes: 1}},
	}
	for _, tt := range tests {
		got, err := ParseISODuration(tt.in)
		if err != nil {
			t.Errorf("ParseISODuration(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseISODuration(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseISODurationRejects(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "P", "PT", "10Y", "P1", "P1YT", "P1M1Y", "PT1S1M", "P1.5Y", "P-1Y", "P1H", "PT1D", "P1Y1Y",
		"P201Y", "PT3000000H", "P2500M", "P73100D", "PT99999999999999999999S", "P99999999999999999999Y"} {
		if _, err := ParseISODuration(in); !errors.Is(err, ErrInvalidDuration) {
			t.Errorf("ParseISODuration(%q) error = %v, want ErrInvalidDuration", in, err)
		}
	}
}

func TestParseISODurationUpperBound(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"P200Y", "PT1752000H", "P100YT800000H"} {
		d, err := ParseISODuration(in)
		if err != nil {
			t.Errorf("ParseISODuration(%q) error = %v", in, err)
			continue
		}
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		if end := d.AddTo(base); !end.After(base) {
			t.Errorf("%q.AddTo(%v) = %v, want a later time", in, base, end)
		}
	}
}

func TestExpiresAtLargeRetentionRejected(t *testing.T) {
	t.Parallel()
	p := testPayload()
	p.RetentionPeriod = "PT3000000H"
	if _, err := ExpiresAt(p); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("ExpiresAt(PT3000000H) error = %v, want ErrInvalidDuration", err)
	}
}

func TestDurationAddTo(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	d := Duration{Months: 1, Hours: 1, Seconds: 0.5}
	got := d.AddTo(base)
	want := base.AddDate(0, 1, 0).Add(time.Hour + 500*time.Millisecond)
	if !got.Equal(want) {
		t.Errorf("AddTo = %v, want %v", got, want)
	}
}
