// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/verwerkingenlog/docs"
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
	"github.com/tomtom215/verwerkingenlog/internal/supervisor"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Default logger; config not yet available
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(loggingConfig(cfg.Logging))
	docs.SwaggerInfo.Version = cfg.Server.APIVersion

	logging.Info().
		Str("version", version).
		Str("queue_backend", cfg.Queue.Backend).
		Str("backup_backend", cfg.Backup.Backend).
		Str("operator_addr", cfg.Server.OperatorAddr).
		Str("access_addr", cfg.Server.AccessAddr).
		Msg("Starting verwerkingenlog")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run builds the service graph, runs the supervisor tree until SIGINT or
// SIGTERM and then closes the stores. It returns only after every deferred
// close has run.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	watchConfig()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return err
	}
	addServices(tree, app)

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	return nil
}

func loggingConfig(cfg config.LoggingConfig) logging.Config {
	lc := logging.DefaultConfig()
	if cfg.Level != "" {
		lc.Level = cfg.Level
	}
	if cfg.Format != "" {
		lc.Format = cfg.Format
	}
	lc.Caller = cfg.Caller
	lc.VerboseSensitive = cfg.VerboseSensitive
	return lc
}
