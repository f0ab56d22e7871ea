// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package store

import (
	"context"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

const defaultGCRatio = 0.5

// GCService periodically reclaims value log space left behind by expired,
// deleted and replaced records. It implements suture.Service.
type GCService struct {
	store    *Store
	interval time.Duration
	ratio    float64
}

// NewGCService creates a GC service. A non-positive interval defaults to ten
// minutes.
func NewGCService(s *Store, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{store: s, interval: interval, ratio: defaultGCRatio}
}

// Serve runs until ctx is canceled.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.collect()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.collect()
		}
	}
}

func (g *GCService) collect() {
	start := time.Now()
	runs, err := g.store.RunGC(g.ratio)
	if err != nil {
		logging.Error().Err(err).Msg("Record store value log GC failed")
	} else if runs > 0 {
		logging.Debug().Int("runs", runs).Dur("duration", time.Since(start)).Msg("Record store value log GC completed")
	}

	lsm, vlog := g.store.Size()
	metrics.UpdateStoreSize(lsm + vlog)
}

// String implements fmt.Stringer for suture logging.
func (g *GCService) String() string {
	return "record-store-gc"
}
