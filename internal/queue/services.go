// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package queue

import (
	"context"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/metrics"
)

// Redriver moves dead letters back onto a live transport. *Queue is the
// badger implementation.
type Redriver interface {
	RedriveAll(ctx context.Context, topic string, maxRedrives int) (int, error)
}

// AutoRedriver periodically moves dead letters back to the main queue until
// each has been redriven limit times. It implements suture.Service.
type AutoRedriver struct {
	r        Redriver
	topic    string
	interval time.Duration
	limit    int
}

// NewAutoRedriver creates an auto-redrive worker for topic.
func NewAutoRedriver(r Redriver, topic string, interval time.Duration, limit int) *AutoRedriver {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if limit < 1 {
		limit = 1
	}
	return &AutoRedriver{r: r, topic: topic, interval: interval, limit: limit}
}

// Serve implements suture.Service.
func (r *AutoRedriver) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RedriveOnce(ctx)
		}
	}
}

// RedriveOnce runs one pass and returns the number of messages redriven.
func (r *AutoRedriver) RedriveOnce(ctx context.Context) int {
	n, err := r.r.RedriveAll(ctx, r.topic, r.limit)
	if err != nil {
		logging.Error().Err(err).Str("topic", r.topic).Msg("Auto-redrive failed")
	}
	if n > 0 {
		metrics.RecordRedrive(r.topic, "auto", n)
		logging.Info().Str("topic", r.topic).Int("count", n).Msg("Dead letters redriven")
	}
	return n
}

// String implements fmt.Stringer for suture logging.
func (r *AutoRedriver) String() string {
	return "queue-auto-redrive"
}

// StatsReporter publishes partition depths as Prometheus gauges. It
// implements suture.Service.
type StatsReporter struct {
	q        *Queue
	topic    string
	interval time.Duration
}

// NewStatsReporter creates a gauge updater for topic.
func NewStatsReporter(q *Queue, topic string, interval time.Duration) *StatsReporter {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &StatsReporter{q: q, topic: topic, interval: interval}
}

// Serve implements suture.Service.
func (r *StatsReporter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.report(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

func (r *StatsReporter) report(ctx context.Context) {
	stats, err := r.q.Stats(ctx, r.topic)
	if err != nil {
		logging.Debug().Err(err).Str("topic", r.topic).Msg("Queue stats unavailable")
		return
	}
	metrics.UpdateQueueGauges(r.topic, stats.Ready, stats.InFlight, stats.DeadLetters)
}

// String implements fmt.Stringer for suture logging.
func (r *StatsReporter) String() string {
	return "queue-stats"
}
