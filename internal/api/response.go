// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/models"
)

// ListResponse is a page of results.
type ListResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// DeletedResponse acknowledges an idempotent delete.
type DeletedResponse struct {
	ActionID string `json:"actionId"`
	Deleted  bool   `json:"deleted"`
}

// RedriveResponse acknowledges a dead-letter redrive.
type RedriveResponse struct {
	ID        string `json:"id"`
	Redriven  bool   `json:"redriven"`
	Transport string `json:"transport"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status  string             `json:"status"`
	Version string             `json:"version"`
	Uptime  float64            `json:"uptimeSeconds"`
	Checks  map[string]string  `json:"checks"`
	Queue   *models.QueueStats `json:"queue,omitempty"`
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}
