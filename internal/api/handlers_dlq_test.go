// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/tomtom215/verwerkingenlog/internal/models"
)

func poison(t *testing.T, s *testServer, id string) {
	t.Helper()
	err := s.q.Poison(context.Background(), s.tr.Topic, id, []byte(`{"broken":true}`), map[string]string{"kind": "create"}, "payload rejected")
	if err != nil {
		t.Fatalf("Poison(%s) error = %v", id, err)
	}
}

func TestDeadLetters_ListAndGet(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	poison(t, s, "m1")
	poison(t, s, "m2")

	rec := do(t, s.operator, http.MethodGet, "/dead-letters", operatorKey, nil)
	wantStatus(t, rec, http.StatusOK)
	list := decode[ListResponse[models.DeadLetter]](t, rec)
	if len(list.Items) != 2 {
		t.Fatalf("dead letters = %d, want 2", len(list.Items))
	}

	limited := decode[ListResponse[models.DeadLetter]](t, do(t, s.operator, http.MethodGet, "/dead-letters?limit=1", operatorKey, nil))
	if len(limited.Items) != 1 {
		t.Errorf("dead letters with limit=1 = %d, want 1", len(limited.Items))
	}

	rec = do(t, s.operator, http.MethodGet, "/dead-letters/m1", operatorKey, nil)
	wantStatus(t, rec, http.StatusOK)
	dl := decode[models.DeadLetter](t, rec)
	if dl.ID != "m1" || dl.LastError != "payload rejected" {
		t.Errorf("dead letter = %+v, want m1 with its cause", dl)
	}

	wantStatus(t, do(t, s.operator, http.MethodGet, "/dead-letters/unknown", operatorKey, nil), http.StatusNotFound)
	wantStatus(t, do(t, s.operator, http.MethodGet, "/dead-letters?limit=x", operatorKey, nil), http.StatusBadRequest)
}

func TestDeadLetters_Redrive(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	poison(t, s, "m1")

	rec := do(t, s.operator, http.MethodPost, "/dead-letters/m1/redrive", operatorKey, nil)
	wantStatus(t, rec, http.StatusOK)
	got := decode[RedriveResponse](t, rec)
	if !got.Redriven || got.Transport != s.tr.Backend {
		t.Errorf("redrive = %+v", got)
	}

	stats, err := s.q.Stats(context.Background(), s.tr.Topic)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DeadLetters != 0 || stats.Ready != 1 {
		t.Errorf("stats after redrive = %+v, want 1 ready and no dead letters", stats)
	}

	// Gone from the partition, so a second redrive finds nothing.
	wantStatus(t, do(t, s.operator, http.MethodPost, "/dead-letters/m1/redrive", operatorKey, nil), http.StatusNotFound)
}

func TestDeadLetters_Purge(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	poison(t, s, "m1")

	wantStatus(t, do(t, s.operator, http.MethodDelete, "/dead-letters/m1", operatorKey, nil), http.StatusNoContent)
	wantStatus(t, do(t, s.operator, http.MethodGet, "/dead-letters/m1", operatorKey, nil), http.StatusNotFound)
	wantStatus(t, do(t, s.operator, http.MethodDelete, "/dead-letters/m1", operatorKey, nil), http.StatusNotFound)
}

func TestDeadLetters_InzageKeyForbidden(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	wantStatus(t, do(t, s.operator, http.MethodGet, "/dead-letters", inzageKey, nil), http.StatusForbidden)
}
