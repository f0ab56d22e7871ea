// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// maxDeadLetterPage bounds GET /dead-letters.
const maxDeadLetterPage = 1000

// ListDeadLetters returns the oldest dead letters of the action topic.
//
// @Summary List dead letters
// @Tags Dead Letters
// @Produce json
// @Param limit query int false "Maximum entries (default 100)"
// @Success 200 {object} ListResponse[models.DeadLetter]
// @Router /dead-letters [get]
func (h *Handler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, models.NewValidationError("limit", "limit must be a positive integer"))
			return
		}
		limit = min(n, maxDeadLetterPage)
	}

	dls, err := h.deadLetters.DeadLetters(r.Context(), h.topic, limit)
	if err != nil {
		respondError(w, r, models.NewTransientInfraError("queue", "dead-letters", err))
		return
	}
	respondJSON(w, http.StatusOK, ListResponse[models.DeadLetter]{Items: dls})
}

// GetDeadLetter returns one dead letter.
//
// @Summary Get a dead letter
// @Tags Dead Letters
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} models.DeadLetter
// @Failure 404 {object} Problem
// @Router /dead-letters/{id} [get]
func (h *Handler) GetDeadLetter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	dl, err := h.deadLetters.DeadLetter(r.Context(), h.topic, id)
	if err != nil {
		respondError(w, r, queueError("dead-letter", err))
		return
	}
	respondJSON(w, http.StatusOK, dl)
}

// RedriveDeadLetter moves a dead letter back onto the live queue with a
// fresh delivery budget.
//
// @Summary Redrive a dead letter
// @Tags Dead Letters
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} RedriveResponse
// @Failure 404 {object} Problem
// @Router /dead-letters/{id}/redrive [post]
func (h *Handler) RedriveDeadLetter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.redriver.Redrive(r.Context(), id); err != nil {
		respondError(w, r, queueError("redrive", err))
		return
	}
	logging.Ctx(r.Context()).Info().Str("message_id", id).Str("transport", h.transport).Msg("Dead letter redriven")
	respondJSON(w, http.StatusOK, RedriveResponse{ID: id, Redriven: true, Transport: h.transport})
}

// DeleteDeadLetter purges a dead letter permanently.
//
// @Summary Purge a dead letter
// @Tags Dead Letters
// @Param id path string true "Message ID"
// @Success 204
// @Failure 404 {object} Problem
// @Router /dead-letters/{id} [delete]
func (h *Handler) DeleteDeadLetter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.deadLetters.PurgeDeadLetter(r.Context(), h.topic, id); err != nil {
		respondError(w, r, queueError("purge", err))
		return
	}
	logging.Ctx(r.Context()).Warn().Str("message_id", id).Msg("Dead letter purged")
	w.WriteHeader(http.StatusNoContent)
}

// queueError keeps not-found as is and reports other queue failures as
// transient.
func queueError(op string, err error) error {
	if isNotFound(err) {
		return err
	}
	return models.NewTransientInfraError("queue", op, err)
}
