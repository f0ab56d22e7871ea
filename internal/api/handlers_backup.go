// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"
)

// ReplayBackup publishes the newest backup copy of an action again. It
// closes the gap left when a backup was written but the enqueue failed.
//
// @Summary Replay an action from its backup
// @Tags Backups
// @Produce json
// @Param actionId path string true "Action ID"
// @Success 200 {object} models.Receipt
// @Failure 404 {object} Problem
// @Failure 503 {object} Problem
// @Router /backups/{actionId}/replay [post]
func (h *Handler) ReplayBackup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "actionId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	receipt, err := h.intake.Replay(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}
