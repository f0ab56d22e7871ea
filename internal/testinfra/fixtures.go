// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package testinfra

import (
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// ActivityID is the processing activity of Payload.
const ActivityID = "5f0bef4c-f66f-4311-84a5-19e8bf359eaf"

// OccurredAt is the business time of Payload.
var OccurredAt = time.Date(2024, 4, 5, 13, 35, 42, 0, time.UTC)

// Payload returns a valid action about person/BSN/1234567.
func Payload() *models.Payload {
	return &models.Payload{
		ActionName:        "Inzien",
		OperationName:     "Bekijken dossier",
		ProcessingID:      "verwerking-1",
		ProcessingName:    "Behandelen aanvraag",
		ActivityID:        ActivityID,
		ActivityURL:       "https://register.example.nl/activiteiten/" + ActivityID,
		Confidentiality:   models.ConfidentialityNormal,
		RetentionPeriod:   "P10Y",
		ActorOrganization: "Gemeente Voorbeeld",
		ActorSystem:       "zaaksysteem",
		ActorUser:         "medewerker-42",
		DataSource:        "brp",
		OccurredAt:        OccurredAt,
		ProcessedObjects: []models.ProcessedObject{{
			ObjectType:     "person",
			SubjectIDKind:  "BSN",
			SubjectID:      "1234567",
			Involvement:    "betrokkene",
			DataCategories: []models.DataCategory{{Category: "naam"}, {Category: "adres"}},
		}},
	}
}

// Body encodes p as a request body.
func Body(t testing.TB, p *models.Payload) []byte {
	t.Helper()
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("json.Marshal(payload) error = %v", err)
	}
	return raw
}
