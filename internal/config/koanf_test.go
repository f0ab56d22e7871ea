// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	testOperatorKey = "operator-key-0123456789"
	testInzageKey   = "inzage-key-0123456789"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Auth.OperatorKeys = []string{testOperatorKey}
	cfg.Auth.InzageKeys = []string{testInzageKey}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	if cfg.Server.OperatorAddr != ":8080" {
		t.Errorf("Server.OperatorAddr = %q, want :8080", cfg.Server.OperatorAddr)
	}
	if cfg.Server.AccessAddr != ":8081" {
		t.Errorf("Server.AccessAddr = %q, want :8081", cfg.Server.AccessAddr)
	}
	if cfg.Auth.Header != "X-API-Key" {
		t.Errorf("Auth.Header = %q, want X-API-Key", cfg.Auth.Header)
	}
	if cfg.Queue.MaxDeliveries != 3 {
		t.Errorf("Queue.MaxDeliveries = %d, want 3", cfg.Queue.MaxDeliveries)
	}
	if cfg.Queue.Backend != "badger" {
		t.Errorf("Queue.Backend = %q, want badger", cfg.Queue.Backend)
	}
	if cfg.Backup.RetentionDays != 90 {
		t.Errorf("Backup.RetentionDays = %d, want 90", cfg.Backup.RetentionDays)
	}
	if cfg.Store.TombstoneTTL != 14*24*time.Hour {
		t.Errorf("Store.TombstoneTTL = %v, want 336h", cfg.Store.TombstoneTTL)
	}
	if cfg.Logging.VerboseSensitive {
		t.Error("Logging.VerboseSensitive should default to false")
	}
	if cfg.Server.SwaggerEnabled {
		t.Error("Server.SwaggerEnabled should default to false")
	}
}

func TestValidateAcceptsDefaultsWithKeys(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no operator keys", func(c *Config) { c.Auth.OperatorKeys = nil }, "AUTH_OPERATOR_KEYS"},
		{"short key", func(c *Config) { c.Auth.InzageKeys = []string{"short"} }, "shorter than 16"},
		{"placeholder key", func(c *Config) { c.Auth.OperatorKeys = []string{"CHANGEME-0123456789"} }, "placeholder"},
		{"key in both populations", func(c *Config) { c.Auth.InzageKeys = []string{testOperatorKey} }, "both"},
		{"same addresses", func(c *Config) { c.Server.AccessAddr = c.Server.OperatorAddr }, "must differ"},
		{"zero deliveries", func(c *Config) { c.Queue.MaxDeliveries = 0 }, "QUEUE_MAX_DELIVERIES"},
		{"unknown queue backend", func(c *Config) { c.Queue.Backend = "sqs" }, "QUEUE_BACKEND"},
		{"unknown backup backend", func(c *Config) { c.Backup.Backend = "gcs" }, "BACKUP_BACKEND"},
		{"s3 without bucket", func(c *Config) { c.Backup.Backend = "s3" }, "BACKUP_S3_BUCKET"},
		{"bad s3 endpoint", func(c *Config) {
			c.Backup.Backend = "s3"
			c.Backup.S3.Bucket = "b"
			c.Backup.S3.Endpoint = "minio:9000"
		}, "BACKUP_S3_ENDPOINT"},
		{"bad nats url", func(c *Config) {
			c.Queue.Backend = "nats"
			c.NATS.EmbeddedServer = false
			c.NATS.URL = "http://localhost:4222"
		}, "NATS_URL"},
		{"backoff inverted", func(c *Config) { c.Queue.BackoffMax = time.Millisecond }, "QUEUE_BACKOFF_MAX"},
		{"zero rate limit", func(c *Config) { c.RateLimit.Access.Requests = 0 }, "rate_limit.access.requests"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateDisabledRateLimitSkipsChecks(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.RateLimit.Operator = LimitConfig{Disabled: true}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AUTH_OPERATOR_KEYS", testOperatorKey+", second-key-0123456789")
	t.Setenv("AUTH_INZAGE_KEYS", testInzageKey)
	t.Setenv("QUEUE_MAX_DELIVERIES", "5")
	t.Setenv("QUEUE_VISIBILITY_TIMEOUT", "90s")
	t.Setenv("ENABLE_VERBOSE_AND_SENSITIVE_LOGGING", "true")
	t.Setenv("SWAGGER_ENABLED", "true")
	t.Setenv("SOME_UNRELATED_VARIABLE", "ignored")

	cfg, err := loadFrom("")
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if got := cfg.Auth.OperatorKeys; len(got) != 2 || got[1] != "second-key-0123456789" {
		t.Errorf("Auth.OperatorKeys = %v, want two trimmed keys", got)
	}
	if cfg.Queue.MaxDeliveries != 5 {
		t.Errorf("Queue.MaxDeliveries = %d, want 5", cfg.Queue.MaxDeliveries)
	}
	if cfg.Queue.VisibilityTimeout != 90*time.Second {
		t.Errorf("Queue.VisibilityTimeout = %v, want 90s", cfg.Queue.VisibilityTimeout)
	}
	if !cfg.Logging.VerboseSensitive {
		t.Error("Logging.VerboseSensitive = false, want true from legacy variable")
	}
	if !cfg.Server.SwaggerEnabled {
		t.Error("Server.SwaggerEnabled = false, want true")
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  operator_addr: ":9090"
  access_addr: ":9091"
auth:
  operator_keys:
    - ` + testOperatorKey + `
queue:
  max_deliveries: 7
backup:
  retention_days: 30
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUEUE_MAX_DELIVERIES", "4")

	cfg, err := loadFrom(path)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if cfg.Server.OperatorAddr != ":9090" {
		t.Errorf("Server.OperatorAddr = %q, want :9090", cfg.Server.OperatorAddr)
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Errorf("Backup.RetentionDays = %d, want 30", cfg.Backup.RetentionDays)
	}
	if cfg.Queue.MaxDeliveries != 4 {
		t.Errorf("Queue.MaxDeliveries = %d, want 4 (env beats file)", cfg.Queue.MaxDeliveries)
	}
	if cfg.Queue.Topic != "verwerkingsacties" {
		t.Errorf("Queue.Topic = %q, want default", cfg.Queue.Topic)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("AUTH_OPERATOR_KEYS", testOperatorKey)
	t.Setenv("QUEUE_BACKEND", "kafka")

	if _, err := loadFrom(""); err == nil {
		t.Fatal("loadFrom() = nil error, want validation failure")
	}
}

func TestFindConfigFileHonoursEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"QUEUE_MAX_DELIVERIES":     "queue.max_deliveries",
		"backup_s3_bucket":         "backup.s3.bucket",
		"INZAGE_RATE_LIMIT_WINDOW": "rate_limit.access.window",
		"PATH":                     "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
