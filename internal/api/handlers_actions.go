// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"

	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// CreateAction accepts a new processing action.
//
// @Summary Register a processing action
// @Description Validates the action, writes a backup copy and enqueues it. The action is stored asynchronously.
// @Tags Actions
// @Accept json
// @Produce json
// @Success 200 {object} models.Receipt
// @Failure 400 {object} Problem
// @Failure 503 {object} Problem
// @Router /actions [post]
func (h *Handler) CreateAction(w http.ResponseWriter, r *http.Request) {
	raw, err := readJSONBody(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	receipt, err := h.intake.Create(r.Context(), raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// AmendAction replaces an action. By default the replacement is queued like
// a create; with ?sync=true it is written directly and the stored record is
// returned.
//
// @Summary Amend a processing action
// @Tags Actions
// @Accept json
// @Produce json
// @Param actionId path string true "Action ID"
// @Param sync query bool false "Write synchronously"
// @Success 200 {object} models.Receipt
// @Failure 400 {object} Problem
// @Failure 422 {object} Problem
// @Failure 503 {object} Problem
// @Router /actions/{actionId} [put]
func (h *Handler) AmendAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "actionId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	raw, err := readJSONBody(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if parseBool(r.URL.Query().Get("sync")) {
		rec, err := h.query.AmendByActionID(r.Context(), id, raw)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, rec)
		return
	}

	receipt, err := h.intake.Amend(r.Context(), id, raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// GetAction returns one stored action.
//
// @Summary Get a processing action
// @Tags Actions
// @Produce json
// @Param actionId path string true "Action ID"
// @Success 200 {object} models.Record
// @Failure 404 {object} Problem
// @Router /actions/{actionId} [get]
func (h *Handler) GetAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "actionId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	rec, err := h.query.GetByActionID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// ListActions lists actions on one index. The primary selector is subject,
// then activity, then processedObject, then processing; the other selectors
// narrow the result.
//
// @Summary List processing actions
// @Tags Actions
// @Produce json
// @Param subject query string false "objectType:subjectIdKind:subjectId"
// @Param activity query string false "Processing activity ID"
// @Param processedObject query string false "Processed object ID"
// @Param processing query string false "Processing ID"
// @Param from query string false "RFC 3339 lower bound on occurredAt"
// @Param to query string false "RFC 3339 upper bound on occurredAt"
// @Param confidentiality query string false "normaal or vertrouwelijk"
// @Param limit query int false "Page size"
// @Param cursor query string false "Continuation cursor"
// @Success 200 {object} ListResponse[models.Record]
// @Failure 400 {object} Problem
// @Router /actions [get]
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseFilter(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	page, err := h.query.List(r.Context(), parseSelector(q), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []*models.Record{}
	}
	respondJSON(w, http.StatusOK, ListResponse[*models.Record]{Items: items, NextCursor: page.NextCursor})
}

// PatchActions queues a change of confidentiality and/or retention period
// for every action registered under one processing id.
//
// @Summary Patch the actions of a processing
// @Description Writes a backup copy and enqueues the patch. Actions registered after the patch are not changed.
// @Tags Actions
// @Accept json
// @Produce json
// @Param processingId query string true "Processing ID"
// @Param patch body models.ProcessingPatch true "Fields to change"
// @Success 200 {object} models.PatchReceipt
// @Failure 400 {object} Problem
// @Failure 503 {object} Problem
// @Router /actions [patch]
func (h *Handler) PatchActions(w http.ResponseWriter, r *http.Request) {
	processingID := r.URL.Query().Get("processingId")
	if processingID == "" {
		respondError(w, r, models.NewValidationError("processingId", "processingId query parameter is required"))
		return
	}
	raw, err := readJSONBody(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	receipt, err := h.intake.Patch(r.Context(), processingID, raw)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// DeleteAction removes an action. Deleting an unknown action succeeds.
//
// @Summary Delete a processing action
// @Tags Actions
// @Produce json
// @Param actionId path string true "Action ID"
// @Success 200 {object} DeletedResponse
// @Router /actions/{actionId} [delete]
func (h *Handler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "actionId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.query.DeleteByActionID(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DeletedResponse{ActionID: id, Deleted: true})
}
