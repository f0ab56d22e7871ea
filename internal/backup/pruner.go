// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package backup

import (
	"context"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

// Pruner applies the retention period to a LocalSink. Buckets rely on their
// lifecycle rules instead. It implements suture.Service.
type Pruner struct {
	sink      *LocalSink
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewPruner creates a pruner that removes entries older than retentionDays.
func NewPruner(sink *LocalSink, retentionDays int, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Pruner{
		sink:      sink,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		now:       time.Now,
	}
}

// Serve runs until ctx is canceled.
func (p *Pruner) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PruneOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.PruneOnce(ctx)
		}
	}
}

// PruneOnce runs one retention pass and returns the number of removed entries.
func (p *Pruner) PruneOnce(ctx context.Context) int {
	cutoff := p.now().Add(-p.retention)
	removed, err := p.sink.Prune(ctx, cutoff)
	if err != nil {
		logging.Error().Err(err).Msg("Backup retention pass failed")
	}
	if removed > 0 {
		metrics.RecordBackupPruned(removed)
		logging.Info().
			Int("removed", removed).
			Time("cutoff", cutoff).
			Msg("Retention policy applied")
	}
	return removed
}

// String implements fmt.Stringer for suture logging.
func (p *Pruner) String() string {
	return "backup-pruner"
}
