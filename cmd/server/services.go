// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package main

import (
	"github.com/tomtom215/verwerkingenlog/internal/backup"
	"github.com/tomtom215/verwerkingenlog/internal/eventprocessor"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/queue"
	"github.com/tomtom215/verwerkingenlog/internal/store"
	"github.com/tomtom215/verwerkingenlog/internal/supervisor"
	"github.com/tomtom215/verwerkingenlog/internal/supervisor/services"
)

// addServices places every long-running component in its layer.
func addServices(tree *supervisor.SupervisorTree, a *app) {
	cfg := a.cfg

	// Storage layer
	tree.AddStorageService(store.NewGCService(a.store, cfg.Store.GCInterval))
	if local, ok := a.sink.(*backup.LocalSink); ok && cfg.Backup.RetentionDays > 0 {
		tree.AddStorageService(backup.NewPruner(local, cfg.Backup.RetentionDays, cfg.Backup.PruneInterval))
		logging.Info().Int("retention_days", cfg.Backup.RetentionDays).Msg("Backup pruner added to supervisor tree")
	}

	// Messaging layer: the broker first, so the consumer finds it running
	tree.AddMessagingServices(a.transport.Services...)
	tree.AddMessagingService(a.transport.ConsumerService(
		eventprocessor.RouterConfigFrom(cfg.Processor),
		"processor",
		a.processor.Handle,
		logging.NewWatermillLogger("router"),
	))
	tree.AddMessagingService(queue.NewStatsReporter(a.queue, a.transport.Topic, 0))
	if cfg.Queue.AutoRedrive {
		tree.AddMessagingService(queue.NewAutoRedriver(a.transport, a.transport.Topic, cfg.Queue.AutoRedriveInterval, cfg.Queue.AutoRedriveLimit))
		logging.Info().
			Dur("interval", cfg.Queue.AutoRedriveInterval).
			Int("limit", cfg.Queue.AutoRedriveLimit).
			Msg("Dead-letter auto-redrive enabled")
	}

	// API layer
	tree.AddAPIService(services.NewHTTPServerService("operator-http", a.operator, cfg.Server.ShutdownTimeout))
	tree.AddAPIService(services.NewHTTPServerService("access-http", a.access, cfg.Server.ShutdownTimeout))
	logging.Info().
		Str("operator_addr", a.operator.Addr).
		Str("access_addr", a.access.Addr).
		Msg("HTTP server services added")
}
