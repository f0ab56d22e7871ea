// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package config

import "time"

// Config is the complete service configuration. It is built once by Load
// and passed down explicitly; nothing in the service reads configuration from
// package-level state.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Auth       AuthConfig       `koanf:"auth"`
	RateLimit  RateLimitConfig  `koanf:"rate_limit"`
	Store      StoreConfig      `koanf:"store"`
	Queue      QueueConfig      `koanf:"queue"`
	NATS       NATSConfig       `koanf:"nats"`
	Backup     BackupConfig     `koanf:"backup"`
	Intake     IntakeConfig     `koanf:"intake"`
	Processor  ProcessorConfig  `koanf:"processor"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds the two HTTP listeners.
type ServerConfig struct {
	// OperatorAddr serves /actions, /dead-letters and /backups.
	OperatorAddr string `koanf:"operator_addr"`
	// AccessAddr serves the inzage routes (/processed-objects).
	AccessAddr      string        `koanf:"access_addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// APIVersion is returned in the API-Version header of every response.
	APIVersion     string `koanf:"api_version"`
	MaxBodyBytes   int64  `koanf:"max_body_bytes"`
	MetricsEnabled bool   `koanf:"metrics_enabled"`
	// SwaggerEnabled serves the OpenAPI document and UI under /swagger/ on
	// the operator host, outside admission.
	SwaggerEnabled bool     `koanf:"swagger_enabled"`
	CORSOrigins    []string `koanf:"cors_origins"`
}

// AuthConfig holds the two admission key populations.
type AuthConfig struct {
	// Header is the request header carrying the admission key.
	Header string `koanf:"header"`
	// OperatorKeys may use the operator API.
	OperatorKeys []string `koanf:"operator_keys"`
	// InzageKeys may use the access (inzage) API only.
	InzageKeys []string `koanf:"inzage_keys"`
	// PolicyPath optionally overrides the embedded Casbin policy.
	PolicyPath string `koanf:"policy_path"`
}

// RateLimitConfig holds admission limits per host.
type RateLimitConfig struct {
	Operator LimitConfig `koanf:"operator"`
	Access   LimitConfig `koanf:"access"`
}

// LimitConfig combines a host-wide limit with a per-key token bucket.
type LimitConfig struct {
	Disabled bool `koanf:"disabled"`
	// Requests per Window across all callers of the host.
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	// KeyRate is the sustained per-key rate (requests per second).
	KeyRate float64 `koanf:"key_rate"`
	// KeyBurst is the per-key bucket size.
	KeyBurst int `koanf:"key_burst"`
}

// StoreConfig configures the badger-backed Record Store.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
	// TombstoneTTL bounds how long deletes suppress late redeliveries.
	TombstoneTTL time.Duration `koanf:"tombstone_ttl"`
	Timeout      time.Duration `koanf:"timeout"`
}

// QueueConfig configures the durable queue and its dead-letter partition.
type QueueConfig struct {
	// Backend is "badger" (embedded) or "nats" (JetStream).
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
	// InMemory keeps queue state in memory. Tests only.
	InMemory          bool          `koanf:"in_memory"`
	Topic             string        `koanf:"topic"`
	MaxDeliveries     int           `koanf:"max_deliveries"`
	VisibilityTimeout time.Duration `koanf:"visibility_timeout"`
	PollInterval      time.Duration `koanf:"poll_interval"`
	BackoffBase       time.Duration `koanf:"backoff_base"`
	BackoffMax        time.Duration `koanf:"backoff_max"`
	Consumers         int           `koanf:"consumers"`
	Timeout           time.Duration `koanf:"timeout"`

	AutoRedrive         bool          `koanf:"auto_redrive"`
	AutoRedriveInterval time.Duration `koanf:"auto_redrive_interval"`
	AutoRedriveLimit    int           `koanf:"auto_redrive_limit"`
}

// NATSConfig configures the optional JetStream transport.
type NATSConfig struct {
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	Stream         string        `koanf:"stream"`
	MaxAge         time.Duration `koanf:"max_age"`
	AckWait        time.Duration `koanf:"ack_wait"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
}

// BackupConfig configures the Backup Sink.
type BackupConfig struct {
	// Backend is "local" or "s3".
	Backend       string        `koanf:"backend"`
	Path          string        `koanf:"path"`
	Prefix        string        `koanf:"prefix"`
	RetentionDays int           `koanf:"retention_days"`
	PruneInterval time.Duration `koanf:"prune_interval"`
	Timeout       time.Duration `koanf:"timeout"`
	S3            S3Config      `koanf:"s3"`
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Bucket string `koanf:"bucket"`
	Region string `koanf:"region"`
	// Endpoint selects an S3-compatible service such as MinIO and switches
	// to path-style addressing.
	Endpoint string `koanf:"endpoint"`
	// AccessKeyID and SecretAccessKey select static credentials. When empty
	// the default AWS credential chain is used.
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	// RoleARN, when set, is assumed through STS on top of the base
	// credentials.
	RoleARN         string `koanf:"role_arn"`
	ExternalID      string `koanf:"external_id"`
	RoleSessionName string `koanf:"role_session_name"`
}

// IntakeConfig bounds the accept path.
type IntakeConfig struct {
	// Timeout covers backup plus enqueue for one submission.
	Timeout time.Duration `koanf:"timeout"`
}

// ProcessorConfig configures the queue consumer.
type ProcessorConfig struct {
	HandlerTimeout time.Duration `koanf:"handler_timeout"`
	// ThrottlePerSecond limits processed messages per second; 0 disables.
	ThrottlePerSecond int           `koanf:"throttle_per_second"`
	BreakerMaxFails   uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
	CloseTimeout      time.Duration `koanf:"close_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level            string `koanf:"level"`
	Format           string `koanf:"format"`
	Caller           bool   `koanf:"caller"`
	VerboseSensitive bool   `koanf:"verbose_sensitive"`
}

// SupervisorConfig tunes the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
