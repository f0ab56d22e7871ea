// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package backup

import (
	"context"
	"fmt"

	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// New creates the sink selected by cfg.Backend.
func New(ctx context.Context, cfg config.BackupConfig) (Sink, error) {
	var (
		sink Sink
		err  error
	)
	switch cfg.Backend {
	case "local", "":
		sink, err = NewLocalSink(cfg.Path, cfg.Prefix)
	case "s3":
		sink, err = NewS3Sink(ctx, cfg.S3, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unsupported backup backend: %s (must be 'local' or 's3')", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("backend", sink.Backend()).
		Str("prefix", cfg.Prefix).
		Msg("Backup sink initialized")
	return sink, nil
}
