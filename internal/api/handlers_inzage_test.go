// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/testinfra"
)

// syncPut stores p through the synchronous amend.
func syncPut(t *testing.T, s *testServer, p *models.Payload) string {
	t.Helper()
	id := uuid.NewString()
	wantStatus(t, do(t, s.operator, http.MethodPut, "/actions/"+id+"?sync=true", operatorKey, testinfra.Body(t, p)), http.StatusOK)
	return id
}

func TestListProcessedObjects(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	syncPut(t, s, testinfra.Payload())
	secret := testinfra.Payload()
	secret.Confidentiality = models.ConfidentialityConfidential
	secret.ProcessingName = "Geheime verwerking"
	syncPut(t, s, secret)

	rec := do(t, s.access, http.MethodGet, "/processed-objects?"+subjectQuery, inzageKey, nil)
	wantStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "1234567") {
		t.Error("response discloses the raw subject id")
	}
	if strings.Contains(rec.Body.String(), secret.ProcessingName) {
		t.Error("response discloses a vertrouwelijk action")
	}

	list := decode[ListResponse[models.InzageObject]](t, rec)
	if len(list.Items) != 1 {
		t.Fatalf("objects = %d, want exactly one for person/BSN/1234567", len(list.Items))
	}
	obj := list.Items[0]
	if obj.ObjectType != "person" || obj.SubjectIDKind != "BSN" || len(obj.Actions) != 1 {
		t.Errorf("object = %+v, want one person object with one action", obj)
	}

	one := do(t, s.access, http.MethodGet, "/processed-objects/"+obj.ProcessedObjectID, inzageKey, nil)
	wantStatus(t, one, http.StatusOK)
	if got := decode[models.InzageObject](t, one); got.ProcessedObjectID != obj.ProcessedObjectID {
		t.Errorf("processedObjectId = %q, want %q", got.ProcessedObjectID, obj.ProcessedObjectID)
	}

	empty := decode[ListResponse[models.InzageObject]](t, do(t, s.access, http.MethodGet, "/processed-objects?subject=person:BSN:7654321", inzageKey, nil))
	if empty.Items == nil || len(empty.Items) != 0 {
		t.Errorf("unknown subject = %+v, want an empty list", empty.Items)
	}
}

func TestProcessedObjects_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		key  string
		want int
	}{
		{"missing subject", "/processed-objects", inzageKey, http.StatusBadRequest},
		{"malformed subject", "/processed-objects?subject=person:BSN", inzageKey, http.StatusBadRequest},
		{"inverted range", "/processed-objects?" + subjectQuery + "&from=2025-02-01T00:00:00Z&to=2025-01-01T00:00:00Z", inzageKey, http.StatusBadRequest},
		{"unknown object", "/processed-objects/" + uuid.NewString(), inzageKey, http.StatusNotFound},
		{"operator key", "/processed-objects?" + subjectQuery, operatorKey, http.StatusForbidden},
		{"no key", "/processed-objects?" + subjectQuery, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wantStatus(t, do(t, s.access, http.MethodGet, tt.path, tt.key, nil), tt.want)
		})
	}
}
