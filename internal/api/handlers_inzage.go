// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"

	"github.com/tomtom215/verwerkingenlog/internal/indexkey"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// ListProcessedObjects answers an access request: the subject's processed
// objects with the disclosable actions on each.
//
// @Summary List a subject's processed objects
// @Tags Inzage
// @Produce json
// @Param subject query string true "objectType:subjectIdKind:subjectId"
// @Param activity query string false "Processing activity ID"
// @Param from query string false "RFC 3339 lower bound on occurredAt"
// @Param to query string false "RFC 3339 upper bound on occurredAt"
// @Param cursor query string false "nextCursor of a previous response"
// @Success 200 {object} ListResponse[models.InzageObject]
// @Failure 400 {object} Problem
// @Router /processed-objects [get]
func (h *Handler) ListProcessedObjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subject := q.Get("subject")
	if subject == "" {
		respondError(w, r, models.NewValidationError("subject", "subject is required"))
		return
	}
	objectType, kind, subjectID, err := indexkey.ParseSubject(subject)
	if err != nil {
		respondError(w, r, models.NewValidationError("subject", err.Error()))
		return
	}

	filter, err := parseFilter(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	// Inzage pages internally and never filters on confidentiality.
	filter = models.Filter{From: filter.From, To: filter.To, ActivityID: q.Get("activity"), Cursor: filter.Cursor}

	objects, next, err := h.inzage.ListProcessedObjects(r.Context(), objectType, kind, subjectID, filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if objects == nil {
		objects = []models.InzageObject{}
	}
	respondJSON(w, http.StatusOK, ListResponse[models.InzageObject]{Items: objects, NextCursor: next})
}

// GetProcessedObject returns one processed object with its disclosable
// actions.
//
// @Summary Get a processed object
// @Tags Inzage
// @Produce json
// @Param id path string true "Processed object ID"
// @Success 200 {object} models.InzageObject
// @Failure 404 {object} Problem
// @Router /processed-objects/{id} [get]
func (h *Handler) GetProcessedObject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	obj, err := h.inzage.GetProcessedObject(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, obj)
}
