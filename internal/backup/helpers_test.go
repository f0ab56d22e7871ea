// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package backup

import "github.com/tomtom215/verwerkingenlog/internal/config"

func configWithBackend(backend string) config.BackupConfig {
	return config.BackupConfig{Backend: backend, RetentionDays: 90}
}
