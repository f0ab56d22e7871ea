// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is looked for, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/verwerkingenlog/config.yaml",
	"/etc/verwerkingenlog/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in configuration. LoadWithKoanf layers the
// config file and environment on top of it.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			OperatorAddr:    ":8080",
			AccessAddr:      ":8081",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			APIVersion:      "1.0.0",
			MaxBodyBytes:    1 << 20,
			MetricsEnabled:  true,
			CORSOrigins:     []string{},
		},
		Auth: AuthConfig{
			Header: "X-API-Key",
		},
		RateLimit: RateLimitConfig{
			// Per-key bucket mirrors an API gateway usage plan of rate 10, burst 10.
			Operator: LimitConfig{Requests: 600, Window: time.Minute, KeyRate: 10, KeyBurst: 10},
			Access:   LimitConfig{Requests: 300, Window: time.Minute, KeyRate: 5, KeyBurst: 10},
		},
		Store: StoreConfig{
			Path:         "/data/records",
			SyncWrites:   true,
			GCInterval:   10 * time.Minute,
			TombstoneTTL: 14 * 24 * time.Hour,
			Timeout:      5 * time.Second,
		},
		Queue: QueueConfig{
			Backend:             "badger",
			Path:                "/data/queue",
			Topic:               "verwerkingsacties",
			MaxDeliveries:       3,
			VisibilityTimeout:   60 * time.Second,
			PollInterval:        250 * time.Millisecond,
			BackoffBase:         2 * time.Second,
			BackoffMax:          5 * time.Minute,
			Consumers:           4,
			Timeout:             5 * time.Second,
			AutoRedrive:         false,
			AutoRedriveInterval: 15 * time.Minute,
			AutoRedriveLimit:    3,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats",
			Stream:         "VERWERKINGEN",
			MaxAge:         14 * 24 * time.Hour,
			AckWait:        60 * time.Second,
			DurableName:    "verwerkingen-processor",
			QueueGroup:     "processors",
		},
		Backup: BackupConfig{
			Backend:       "local",
			Path:          "/data/backup",
			Prefix:        "",
			RetentionDays: 90,
			PruneInterval: 6 * time.Hour,
			Timeout:       10 * time.Second,
		},
		Intake: IntakeConfig{
			Timeout: 10 * time.Second,
		},
		Processor: ProcessorConfig{
			HandlerTimeout:  30 * time.Second,
			BreakerMaxFails: 5,
			BreakerTimeout:  30 * time.Second,
			CloseTimeout:    30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Default returns the built-in configuration without reading a file or the
// environment.
func Default() *Config {
	return defaultConfig()
}

// Load reads the configuration. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf builds the configuration from three layers, highest
// priority last:
//  1. Defaults
//  2. YAML config file (CONFIG_PATH, then DefaultConfigPaths), if one exists
//  3. Environment variables listed in envMappings
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment, QUEUE_MAX_DELIVERIES -> queue.max_deliveries
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ConfigFilePath reports the config file LoadWithKoanf would read, or "".
func ConfigFilePath() string {
	return findConfigFile()
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"auth.operator_keys",
	"auth.inzage_keys",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0, 4)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unlisted variables are ignored so the process environment cannot inject
// arbitrary keys.
var envMappings = map[string]string{
	"operator_addr":         "server.operator_addr",
	"access_addr":           "server.access_addr",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"api_version":           "server.api_version",
	"max_body_bytes":        "server.max_body_bytes",
	"metrics_enabled":       "server.metrics_enabled",
	"swagger_enabled":       "server.swagger_enabled",
	"cors_origins":          "server.cors_origins",

	"auth_header":        "auth.header",
	"auth_operator_keys": "auth.operator_keys",
	"auth_inzage_keys":   "auth.inzage_keys",
	"auth_policy_path":   "auth.policy_path",

	"rate_limit_disabled":         "rate_limit.operator.disabled",
	"rate_limit_requests":         "rate_limit.operator.requests",
	"rate_limit_window":           "rate_limit.operator.window",
	"rate_limit_key_rate":         "rate_limit.operator.key_rate",
	"rate_limit_key_burst":        "rate_limit.operator.key_burst",
	"inzage_rate_limit_requests":  "rate_limit.access.requests",
	"inzage_rate_limit_window":    "rate_limit.access.window",
	"inzage_rate_limit_key_rate":  "rate_limit.access.key_rate",
	"inzage_rate_limit_key_burst": "rate_limit.access.key_burst",

	"store_path":          "store.path",
	"store_in_memory":     "store.in_memory",
	"store_sync_writes":   "store.sync_writes",
	"store_gc_interval":   "store.gc_interval",
	"store_tombstone_ttl": "store.tombstone_ttl",
	"store_timeout":       "store.timeout",

	"queue_backend":               "queue.backend",
	"queue_path":                  "queue.path",
	"queue_topic":                 "queue.topic",
	"queue_max_deliveries":        "queue.max_deliveries",
	"queue_visibility_timeout":    "queue.visibility_timeout",
	"queue_poll_interval":         "queue.poll_interval",
	"queue_backoff_base":          "queue.backoff_base",
	"queue_backoff_max":           "queue.backoff_max",
	"queue_consumers":             "queue.consumers",
	"queue_timeout":               "queue.timeout",
	"queue_auto_redrive":          "queue.auto_redrive",
	"queue_auto_redrive_interval": "queue.auto_redrive_interval",
	"queue_auto_redrive_limit":    "queue.auto_redrive_limit",

	"nats_url":          "nats.url",
	"nats_embedded":     "nats.embedded_server",
	"nats_store_dir":    "nats.store_dir",
	"nats_stream":       "nats.stream",
	"nats_max_age":      "nats.max_age",
	"nats_ack_wait":     "nats.ack_wait",
	"nats_durable_name": "nats.durable_name",
	"nats_queue_group":  "nats.queue_group",

	"backup_backend":              "backup.backend",
	"backup_path":                 "backup.path",
	"backup_prefix":               "backup.prefix",
	"backup_retention_days":       "backup.retention_days",
	"backup_prune_interval":       "backup.prune_interval",
	"backup_timeout":              "backup.timeout",
	"backup_s3_bucket":            "backup.s3.bucket",
	"backup_s3_region":            "backup.s3.region",
	"backup_s3_endpoint":          "backup.s3.endpoint",
	"backup_s3_access_key_id":     "backup.s3.access_key_id",
	"backup_s3_secret_access_key": "backup.s3.secret_access_key",
	"backup_s3_role_arn":          "backup.s3.role_arn",
	"backup_s3_external_id":       "backup.s3.external_id",
	"backup_s3_role_session_name": "backup.s3.role_session_name",

	"intake_timeout": "intake.timeout",

	"processor_handler_timeout":  "processor.handler_timeout",
	"processor_throttle":         "processor.throttle_per_second",
	"processor_breaker_failures": "processor.breaker_max_failures",
	"processor_breaker_timeout":  "processor.breaker_timeout",

	"log_level":                 "logging.level",
	"log_format":                "logging.format",
	"log_caller":                "logging.caller",
	"logging_verbose_sensitive": "logging.verbose_sensitive",
	// Legacy name, still honoured.
	"enable_verbose_and_sensitive_logging": "logging.verbose_sensitive",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps QUEUE_MAX_DELIVERIES to queue.max_deliveries.
// Unmapped variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller reloads and applies whatever settings it can change at runtime.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
