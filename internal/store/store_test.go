// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var baseTime = time.Date(2024, 4, 5, 13, 35, 0, 0, time.UTC)

func testRecord(id string, registeredAt time.Time, subjects ...string) *models.Record {
	if len(subjects) == 0 {
		subjects = []string{"1234567"}
	}
	p := models.Payload{
		ActionName:      "Inzien",
		ActivityID:      "activity-1",
		Confidentiality: models.ConfidentialityNormal,
		OccurredAt:      registeredAt.Add(-time.Minute),
	}
	for _, sub := range subjects {
		p.ProcessedObjects = append(p.ProcessedObjects, models.ProcessedObject{
			ObjectType:    "person",
			SubjectIDKind: "BSN",
			SubjectID:     sub,
		})
	}
	return &models.Record{
		ActionID:     id,
		RegisteredAt: registeredAt,
		Keys:         indexkey.Derive(&p),
		Payload:      p,
	}
}

func subjectKey(sub string) string {
	return indexkey.SubjectKey("person", "BSN", sub)
}

func TestUpsertAndGet(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("a1", baseTime)
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := s.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ActionID != "a1" || !got.RegisteredAt.Equal(baseTime) {
		t.Errorf("Get() = %+v, want a1 at %v", got, baseTime)
	}
	if got.Keys.SubjectKeys[0] != subjectKey("1234567") {
		t.Errorf("SubjectKeys[0] = %q, want %q", got.Keys.SubjectKeys[0], subjectKey("1234567"))
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpsert_DuplicateSuppressed(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	rec := testRecord("a1", baseTime)
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Upsert(ctx, testRecord("a1", baseTime)); !errors.Is(err, models.ErrDuplicateSuppressed) {
		t.Errorf("second Upsert() error = %v, want ErrDuplicateSuppressed", err)
	}

	page, err := s.ListBySubject(ctx, subjectKey("1234567"), models.Filter{})
	if err != nil {
		t.Fatalf("ListBySubject() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("ListBySubject() returned %d items, want 1", len(page.Items))
	}
}

func TestUpsert_LastWriteWins(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	create := testRecord("a1", baseTime)
	amend := testRecord("a1", baseTime.Add(time.Minute))
	amend.Confidentiality = models.ConfidentialityConfidential

	if err := s.Upsert(ctx, create); err != nil {
		t.Fatalf("Upsert(create) error = %v", err)
	}
	if err := s.Upsert(ctx, amend); err != nil {
		t.Fatalf("Upsert(amend) error = %v", err)
	}
	// A late redelivery of the create must not roll the amend back.
	if err := s.Upsert(ctx, create); !errors.Is(err, models.ErrDuplicateSuppressed) {
		t.Errorf("Upsert(stale create) error = %v, want ErrDuplicateSuppressed", err)
	}

	got, err := s.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Confidentiality != models.ConfidentialityConfidential {
		t.Errorf("Confidentiality = %q, want %q", got.Confidentiality, models.ConfidentialityConfidential)
	}

	page, err := s.ListBySubject(ctx, subjectKey("1234567"), models.Filter{})
	if err != nil {
		t.Fatalf("ListBySubject() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("ListBySubject() returned %d items, want 1", len(page.Items))
	}
	if page.Items[0].Confidentiality != models.ConfidentialityConfidential {
		t.Errorf("listed Confidentiality = %q, want amended value", page.Items[0].Confidentiality)
	}
}

func TestUpsert_AmendMovesIndexEntries(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("a1", baseTime, "111")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Upsert(ctx, testRecord("a1", baseTime.Add(time.Second), "222")); err != nil {
		t.Fatalf("Upsert(amend) error = %v", err)
	}

	old, err := s.ListBySubject(ctx, subjectKey("111"), models.Filter{})
	if err != nil {
		t.Fatalf("ListBySubject(old) error = %v", err)
	}
	if len(old.Items) != 0 {
		t.Errorf("old subject still lists %d items, want 0", len(old.Items))
	}
	cur, err := s.ListBySubject(ctx, subjectKey("222"), models.Filter{})
	if err != nil {
		t.Fatalf("ListBySubject(new) error = %v", err)
	}
	if len(cur.Items) != 1 {
		t.Errorf("new subject lists %d items, want 1", len(cur.Items))
	}
}

func TestReplace(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("a1", baseTime)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := s.Replace(ctx, testRecord("a1", baseTime.Add(2*time.Second)), baseTime.Add(time.Second)); !errors.Is(err, ErrChanged) {
		t.Errorf("Replace(stale read) error = %v, want %v", err, ErrChanged)
	}
	if err := s.Replace(ctx, testRecord("missing", baseTime.Add(time.Second)), baseTime); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Replace(missing) error = %v, want %v", err, models.ErrNotFound)
	}
	if err := s.Replace(ctx, testRecord("a1", baseTime.Add(time.Second)), baseTime); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, err := s.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.RegisteredAt.Equal(baseTime.Add(time.Second)) {
		t.Errorf("RegisteredAt = %v, want %v", got.RegisteredAt, baseTime.Add(time.Second))
	}
}

func TestUpsert_RepeatedSubjectSingleEntry(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("a1", baseTime, "1234567", "1234567")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	page, err := s.ListBySubject(ctx, subjectKey("1234567"), models.Filter{})
	if err != nil {
		t.Fatalf("ListBySubject() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("ListBySubject() returned %d items, want 1", len(page.Items))
	}
}

func TestUpsert_Expired(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	rec := testRecord("a1", baseTime)
	past := time.Now().Add(-time.Hour)
	rec.ExpiresAt = &past
	if err := s.Upsert(context.Background(), rec); !errors.Is(err, ErrExpired) {
		t.Errorf("Upsert(expired) error = %v, want ErrExpired", err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("a1", baseTime)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	existed, err := s.Delete(ctx, "a1")
	if err != nil || !existed {
		t.Fatalf("Delete() = %v, %v, want true, nil", existed, err)
	}
	existed, err = s.Delete(ctx, "a1")
	if err != nil || existed {
		t.Errorf("second Delete() = %v, %v, want false, nil", existed, err)
	}

	if _, err := s.Get(ctx, "a1"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	for _, list := range []func() (*models.Page, error){
		func() (*models.Page, error) { return s.ListBySubject(ctx, subjectKey("1234567"), models.Filter{}) },
		func() (*models.Page, error) { return s.ListByActivity(ctx, "activity-1", models.Filter{}) },
	} {
		page, err := list()
		if err != nil {
			t.Fatalf("list error = %v", err)
		}
		if len(page.Items) != 0 {
			t.Errorf("list after delete returned %d items, want 0", len(page.Items))
		}
	}

	// A redelivered create registered before the delete stays deleted.
	if err := s.Upsert(ctx, testRecord("a1", baseTime)); !errors.Is(err, models.ErrDuplicateSuppressed) {
		t.Errorf("Upsert() after delete error = %v, want ErrDuplicateSuppressed", err)
	}
}

func TestList_OrderAndPaging(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	// Insert out of order; listing follows registeredAt.
	for _, i := range []int{3, 0, 4, 1, 2} {
		rec := testRecord(fmt.Sprintf("a%d", i), baseTime.Add(time.Duration(i)*time.Second))
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert(%d) error = %v", i, err)
		}
	}

	var got []string
	filter := models.Filter{Limit: 2}
	pages := 0
	for {
		page, err := s.ListByActivity(ctx, "activity-1", filter)
		if err != nil {
			t.Fatalf("ListByActivity() error = %v", err)
		}
		pages++
		for _, r := range page.Items {
			got = append(got, r.ActionID)
		}
		if page.NextCursor == "" {
			break
		}
		filter.Cursor = page.NextCursor
	}

	want := []string{"a0", "a1", "a2", "a3", "a4"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
}

func TestList_Filter(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		rec := testRecord(fmt.Sprintf("a%d", i), baseTime.Add(time.Duration(i)*time.Hour))
		if i%2 == 1 {
			rec.Confidentiality = models.ConfidentialityConfidential
		}
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter models.Filter
		want   int
	}{
		{"no filter", models.Filter{}, 4},
		{"from inclusive", models.Filter{From: baseTime.Add(2*time.Hour - time.Minute)}, 2},
		{"to inclusive", models.Filter{To: baseTime.Add(time.Hour - time.Minute)}, 2},
		{"confidentiality", models.Filter{Confidentiality: models.ConfidentialityConfidential}, 2},
		{"other activity", models.Filter{ActivityID: "activity-2"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.ListBySubject(ctx, subjectKey("1234567"), tt.filter)
			if err != nil {
				t.Fatalf("ListBySubject() error = %v", err)
			}
			if len(page.Items) != tt.want {
				t.Errorf("items = %d, want %d", len(page.Items), tt.want)
			}
		})
	}
}

func TestList_ProcessedObject(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("a1", baseTime, "111", "222")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Upsert(ctx, testRecord("a2", baseTime.Add(time.Second), "222")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	page, err := s.ListByProcessedObject(ctx, indexkey.ProcessedObjectID(subjectKey("222")), models.Filter{})
	if err != nil {
		t.Fatalf("ListByProcessedObject() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Errorf("items = %d, want 2", len(page.Items))
	}
}

func TestList_Processing(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for i, prc := range []string{"verwerking-1", "verwerking-2", "verwerking-1"} {
		rec := testRecord(fmt.Sprintf("a%d", i), baseTime.Add(time.Duration(i)*time.Second))
		rec.ProcessingID = prc
		rec.Keys = indexkey.Derive(&rec.Payload)
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert(%s) error = %v", rec.ActionID, err)
		}
	}

	page, err := s.ListByProcessing(ctx, "verwerking-1", models.Filter{})
	if err != nil {
		t.Fatalf("ListByProcessing() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	if page.Items[0].ActionID != "a0" || page.Items[1].ActionID != "a2" {
		t.Errorf("order = %s,%s, want a0,a2", page.Items[0].ActionID, page.Items[1].ActionID)
	}

	// Clearing the processing id on amend drops the index entry.
	rec := testRecord("a2", baseTime.Add(time.Minute))
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert(amend) error = %v", err)
	}
	page, err = s.ListByProcessing(ctx, "verwerking-1", models.Filter{})
	if err != nil {
		t.Fatalf("ListByProcessing() error = %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("items after amend = %d, want 1", len(page.Items))
	}
}

func TestList_InvalidCursor(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, err := s.ListByActivity(context.Background(), "activity-1", models.Filter{Cursor: "not-a-cursor!"})
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("ListByActivity() error = %v, want ValidationError", err)
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := s.Get(context.Background(), "a1"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() on closed store error = %v, want ErrClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestRunGC_InMemory(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	if _, err := s.RunGC(0.5); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() on open store = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after Close = %v, want ErrClosed", err)
	}
}
