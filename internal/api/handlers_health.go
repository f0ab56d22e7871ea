// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// healthTimeout bounds each dependency check.
const healthTimeout = 2 * time.Second

// Health handles health check requests. It needs no admission key.
//
// @Summary Get service health
// @Description Runs each dependency check; any failure reports degraded with 503.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /healthz [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Checks:  make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if h.deadLetters != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		stats, err := h.deadLetters.Stats(ctx, h.topic)
		cancel()
		if err != nil {
			resp.Status = "degraded"
			resp.Checks["queue"] = err.Error()
		} else {
			resp.Checks["queue"] = "ok"
			resp.Queue = &stats
		}
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
