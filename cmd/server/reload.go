// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package main

import (
	"github.com/tomtom215/verwerkingenlog/internal/config"
	"github.com/tomtom215/verwerkingenlog/internal/logging"
)

// watchConfig reapplies the settings that can change without a restart
// (the log level and the sensitive-field switch) when the config file
// changes. Everything else is read once at startup; a policy file set in
// auth.policy_path is reloaded by the enforcer itself.
func watchConfig() {
	path := config.ConfigFilePath()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.Load()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Config reload failed; keeping current settings")
			return
		}
		applyRuntimeConfig(cfg)
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
		return
	}
	logging.Info().Str("path", path).Msg("Watching config file for log level changes")
}

func applyRuntimeConfig(cfg *config.Config) {
	if cfg.Logging.Level != "" {
		logging.SetLevelString(cfg.Logging.Level)
	}
	logging.SetVerboseSensitive(cfg.Logging.VerboseSensitive)
	logging.Info().
		Str("level", cfg.Logging.Level).
		Bool("verbose_sensitive", cfg.Logging.VerboseSensitive).
		Msg("Runtime settings reloaded")
}
