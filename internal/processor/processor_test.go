// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package processor

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/store"
	"github.com/tomtom215/verwerkingenlog/internal/testinfra"
)

var registeredAt = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newProcessor(w RecordWriter) *Processor {
	return New(w, config.ProcessorConfig{BreakerMaxFails: 100}, time.Second)
}

func actionMessage(t *testing.T, actionID string, kind models.MessageKind, at time.Time, p *models.Payload) *message.Message {
	t.Helper()
	body, err := json.Marshal(models.ActionMessage{
		ActionID:     actionID,
		Kind:         kind,
		RegisteredAt: at,
		Payload:      testinfra.Body(t, p),
	})
	if err != nil {
		t.Fatalf("marshal message: %v", err)
	}
	msg := message.NewMessage(uuid.NewString(), body)
	msg.Metadata.Set(models.MetadataActionID, actionID)
	msg.Metadata.Set(models.MetadataKind, string(kind))
	return msg
}

func mustGet(t *testing.T, s *store.Store, id string) *models.Record {
	t.Helper()
	rec, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return rec
}

// flakyWriter fails the first n upserts.
type flakyWriter struct {
	RecordWriter
	failures int
	calls    int
}

func (w *flakyWriter) Upsert(ctx context.Context, rec *models.Record) error {
	w.calls++
	if w.calls <= w.failures {
		return errors.New("store unavailable")
	}
	return w.RecordWriter.Upsert(ctx, rec)
}

func TestHandle_StoresDerivedRecord(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	p := newProcessor(s)
	payload := testinfra.Payload()
	id := uuid.NewString()

	if err := p.Handle(actionMessage(t, id, models.KindCreate, registeredAt, payload)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	rec := mustGet(t, s, id)
	if want := indexkey.Derive(payload); !reflect.DeepEqual(rec.Keys, want) {
		t.Errorf("Keys = %+v, want %+v", rec.Keys, want)
	}
	if !rec.RegisteredAt.Equal(registeredAt) {
		t.Errorf("RegisteredAt = %v, want %v", rec.RegisteredAt, registeredAt)
	}
	if !rec.OccurredAt.Equal(testinfra.OccurredAt) {
		t.Errorf("OccurredAt = %v, want %v", rec.OccurredAt, testinfra.OccurredAt)
	}
	wantExpiry := testinfra.OccurredAt.AddDate(10, 0, 0)
	if rec.ExpiresAt == nil || !rec.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("ExpiresAt = %v, want %v", rec.ExpiresAt, wantExpiry)
	}

	obj := rec.ProcessedObjects[0]
	if obj.SubjectID != indexkey.Pseudonym("1234567") {
		t.Errorf("stored SubjectID = %q, want its pseudonym", obj.SubjectID)
	}
	if obj.ProcessedObjectID != rec.Keys.ProcessedObjectIDs[0] {
		t.Errorf("ProcessedObjectID = %q, want %q", obj.ProcessedObjectID, rec.Keys.ProcessedObjectIDs[0])
	}
	if payload.ProcessedObjects[0].SubjectID != "1234567" {
		t.Error("BuildRecord modified the caller's payload")
	}
}

func TestHandle_RedeliveryStoresOneIdenticalRecord(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	p := newProcessor(s)
	id := uuid.NewString()
	msg := actionMessage(t, id, models.KindCreate, registeredAt, testinfra.Payload())

	if err := p.Handle(msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	first, _ := json.Marshal(mustGet(t, s, id))

	if err := p.Handle(msg.Copy()); err != nil {
		t.Fatalf("second Handle() error = %v", err)
	}
	second, _ := json.Marshal(mustGet(t, s, id))

	if string(first) != string(second) {
		t.Errorf("record changed on redelivery:\n%s\n%s", first, second)
	}

	page, err := s.ListBySubject(context.Background(), indexkey.SubjectKey("person", "BSN", "1234567"), models.Filter{})
	if err != nil {
		t.Fatalf("ListBySubject() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("ListBySubject() = %d records, want 1", len(page.Items))
	}
}

func TestHandle_AmendReplacesAndStaleCreateIsSuppressed(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	p := newProcessor(s)
	id := uuid.NewString()

	create := actionMessage(t, id, models.KindCreate, registeredAt, testinfra.Payload())
	if err := p.Handle(create); err != nil {
		t.Fatalf("Handle(create) error = %v", err)
	}

	amended := testinfra.Payload()
	amended.Confidentiality = models.ConfidentialityConfidential
	if err := p.Handle(actionMessage(t, id, models.KindAmend, registeredAt.Add(time.Minute), amended)); err != nil {
		t.Fatalf("Handle(amend) error = %v", err)
	}

	// A late redelivery of the create must not roll the amend back.
	if err := p.Handle(create.Copy()); err != nil {
		t.Fatalf("Handle(stale create) error = %v", err)
	}

	rec := mustGet(t, s, id)
	if rec.Confidentiality != models.ConfidentialityConfidential {
		t.Errorf("Confidentiality = %q, want %q", rec.Confidentiality, models.ConfidentialityConfidential)
	}
	page, err := s.ListByActivity(context.Background(), testinfra.ActivityID, models.Filter{})
	if err != nil {
		t.Fatalf("ListByActivity() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("ListByActivity() = %d records, want 1", len(page.Items))
	}
}

func TestHandle_PermanentFailures(t *testing.T) {
	t.Parallel()

	future := testinfra.Payload()
	future.OccurredAt = registeredAt.Add(time.Hour)

	elapsed := testinfra.Payload()
	elapsed.RetentionPeriod = "P1D"

	invalid := testinfra.Payload()
	invalid.ProcessedObjects = nil

	tests := []struct {
		name string
		msg  func(t *testing.T) *message.Message
	}{
		{"undecodable", func(t *testing.T) *message.Message {
			return message.NewMessage(uuid.NewString(), []byte("{not json"))
		}},
		{"missing action id", func(t *testing.T) *message.Message {
			return actionMessage(t, "", models.KindCreate, registeredAt, testinfra.Payload())
		}},
		{"invalid payload", func(t *testing.T) *message.Message {
			return actionMessage(t, uuid.NewString(), models.KindCreate, registeredAt, invalid)
		}},
		{"occurred in the future", func(t *testing.T) *message.Message {
			return actionMessage(t, uuid.NewString(), models.KindCreate, registeredAt, future)
		}},
		{"retention elapsed", func(t *testing.T) *message.Message {
			return actionMessage(t, uuid.NewString(), models.KindCreate, registeredAt, elapsed)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newProcessor(openStore(t))
			err := p.Handle(tt.msg(t))
			if !models.IsPermanent(err) {
				t.Errorf("Handle() error = %v, want PermanentProcessingError", err)
			}
		})
	}
}

func TestHandle_StoreFailureIsTransient(t *testing.T) {
	t.Parallel()
	w := &flakyWriter{RecordWriter: openStore(t), failures: 1}
	p := newProcessor(w)
	msg := actionMessage(t, uuid.NewString(), models.KindCreate, registeredAt, testinfra.Payload())

	err := p.Handle(msg)
	var te *models.TransientInfraError
	if !errors.As(err, &te) {
		t.Fatalf("Handle() error = %v, want TransientInfraError", err)
	}
	if te.Component != "store" {
		t.Errorf("Component = %q, want store", te.Component)
	}

	if err := p.Handle(msg.Copy()); err != nil {
		t.Errorf("Handle() after recovery error = %v", err)
	}
}

func TestWrite_OpenBreakerIsTransient(t *testing.T) {
	t.Parallel()
	w := &flakyWriter{RecordWriter: openStore(t), failures: 1000}
	p := New(w, config.ProcessorConfig{BreakerMaxFails: 2, BreakerTimeout: time.Minute}, time.Second)

	rec, err := BuildRecord(uuid.NewString(), registeredAt, testinfra.Payload())
	if err != nil {
		t.Fatalf("BuildRecord() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		_ = p.Write(context.Background(), rec)
	}
	calls := w.calls

	err = p.Write(context.Background(), rec)
	if !models.IsTransient(err) {
		t.Errorf("Write() error = %v, want TransientInfraError", err)
	}
	if w.calls != calls {
		t.Errorf("store called with the breaker open")
	}
}

func TestHandle_ExpiredActionsLeaveBreakerClosed(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	p := New(s, config.ProcessorConfig{BreakerMaxFails: 2, BreakerTimeout: time.Minute}, time.Second)
	now := time.Now().UTC()

	// Retention ran out while the actions sat in the queue.
	for i := 0; i < 5; i++ {
		expired := testinfra.Payload()
		expired.OccurredAt = now.Add(-3 * time.Hour)
		expired.RetentionPeriod = "PT2H"
		msg := actionMessage(t, uuid.NewString(), models.KindCreate, now.Add(-2*time.Hour), expired)
		if err := p.Handle(msg); !models.IsPermanent(err) {
			t.Fatalf("Handle(expired #%d) error = %v, want PermanentProcessingError", i+1, err)
		}
	}

	id := uuid.NewString()
	if err := p.Handle(actionMessage(t, id, models.KindCreate, registeredAt, testinfra.Payload())); err != nil {
		t.Fatalf("Handle(healthy) after expired actions error = %v", err)
	}
	mustGet(t, s, id)
}

func TestBuildRecord_NoRetention(t *testing.T) {
	t.Parallel()
	payload := testinfra.Payload()
	payload.RetentionPeriod = ""

	rec, err := BuildRecord("id", registeredAt, payload)
	if err != nil {
		t.Fatalf("BuildRecord() error = %v", err)
	}
	if rec.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", rec.ExpiresAt)
	}
}
