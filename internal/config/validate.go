// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	validLogFormats = map[string]bool{
		"json": true, "console": true,
	}
	validQueueBackends = map[string]bool{
		"badger": true, "nats": true,
	}
	validBackupBackends = map[string]bool{
		"local": true, "s3": true,
	}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateBackup(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.OperatorAddr == "" {
		return errors.New("OPERATOR_ADDR is required")
	}
	if c.Server.AccessAddr == "" {
		return errors.New("ACCESS_ADDR is required")
	}
	if c.Server.OperatorAddr == c.Server.AccessAddr {
		return fmt.Errorf("OPERATOR_ADDR and ACCESS_ADDR must differ, both are %q", c.Server.OperatorAddr)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.Header == "" {
		return errors.New("AUTH_HEADER is required")
	}
	if len(c.Auth.OperatorKeys) == 0 {
		return errors.New("AUTH_OPERATOR_KEYS must contain at least one key")
	}
	seen := make(map[string]string, len(c.Auth.OperatorKeys)+len(c.Auth.InzageKeys))
	check := func(keys []string, population string) error {
		for _, k := range keys {
			if len(k) < 16 {
				return fmt.Errorf("%s contains a key shorter than 16 characters", population)
			}
			if containsPlaceholder(k) {
				return fmt.Errorf("%s contains a placeholder value", population)
			}
			if other, dup := seen[k]; dup {
				return fmt.Errorf("key listed in both %s and %s", other, population)
			}
			seen[k] = population
		}
		return nil
	}
	if err := check(c.Auth.OperatorKeys, "AUTH_OPERATOR_KEYS"); err != nil {
		return err
	}
	return check(c.Auth.InzageKeys, "AUTH_INZAGE_KEYS")
}

func (c *Config) validateRateLimits() error {
	for name, l := range map[string]LimitConfig{"operator": c.RateLimit.Operator, "access": c.RateLimit.Access} {
		if l.Disabled {
			continue
		}
		if l.Requests <= 0 {
			return fmt.Errorf("rate_limit.%s.requests must be positive, got %d", name, l.Requests)
		}
		if l.Window <= 0 {
			return fmt.Errorf("rate_limit.%s.window must be positive, got %v", name, l.Window)
		}
		if l.KeyRate <= 0 || l.KeyBurst <= 0 {
			return fmt.Errorf("rate_limit.%s key_rate and key_burst must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("STORE_PATH is required unless STORE_IN_MEMORY=true")
	}
	if c.Store.TombstoneTTL <= 0 {
		return fmt.Errorf("STORE_TOMBSTONE_TTL must be positive, got %v", c.Store.TombstoneTTL)
	}
	return nil
}

func (c *Config) validateQueue() error {
	if !validQueueBackends[c.Queue.Backend] {
		return fmt.Errorf("QUEUE_BACKEND must be one of: badger, nats, got %q", c.Queue.Backend)
	}
	if c.Queue.Topic == "" {
		return errors.New("QUEUE_TOPIC is required")
	}
	if c.Queue.MaxDeliveries < 1 {
		return fmt.Errorf("QUEUE_MAX_DELIVERIES must be at least 1, got %d", c.Queue.MaxDeliveries)
	}
	if c.Queue.VisibilityTimeout <= 0 {
		return fmt.Errorf("QUEUE_VISIBILITY_TIMEOUT must be positive, got %v", c.Queue.VisibilityTimeout)
	}
	if c.Queue.Consumers < 1 {
		return fmt.Errorf("QUEUE_CONSUMERS must be at least 1, got %d", c.Queue.Consumers)
	}
	if c.Queue.BackoffMax < c.Queue.BackoffBase {
		return fmt.Errorf("QUEUE_BACKOFF_MAX (%v) must not be below QUEUE_BACKOFF_BASE (%v)",
			c.Queue.BackoffMax, c.Queue.BackoffBase)
	}
	switch c.Queue.Backend {
	case "badger":
		if !c.Queue.InMemory && c.Queue.Path == "" {
			return errors.New("QUEUE_PATH is required for the badger backend")
		}
	case "nats":
		if !c.NATS.EmbeddedServer {
			if err := validateNATSURL(c.NATS.URL); err != nil {
				return fmt.Errorf("NATS_URL is invalid: %w", err)
			}
		}
		if c.NATS.Stream == "" || c.NATS.DurableName == "" {
			return errors.New("NATS_STREAM and NATS_DURABLE_NAME are required for the nats backend")
		}
	}
	return nil
}

func (c *Config) validateBackup() error {
	if !validBackupBackends[c.Backup.Backend] {
		return fmt.Errorf("BACKUP_BACKEND must be one of: local, s3, got %q", c.Backup.Backend)
	}
	if c.Backup.RetentionDays < 1 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must be at least 1, got %d", c.Backup.RetentionDays)
	}
	switch c.Backup.Backend {
	case "local":
		if c.Backup.Path == "" {
			return errors.New("BACKUP_PATH is required for the local backend")
		}
	case "s3":
		if c.Backup.S3.Bucket == "" {
			return errors.New("BACKUP_S3_BUCKET is required for the s3 backend")
		}
		if c.Backup.S3.Endpoint != "" {
			u, err := url.Parse(c.Backup.S3.Endpoint)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("BACKUP_S3_ENDPOINT must be an http(s) URL, got %q", c.Backup.S3.Endpoint)
			}
		}
		if (c.Backup.S3.AccessKeyID == "") != (c.Backup.S3.SecretAccessKey == "") {
			return errors.New("BACKUP_S3_ACCESS_KEY_ID and BACKUP_S3_SECRET_ACCESS_KEY must be set together")
		}
		if c.Backup.S3.ExternalID != "" && c.Backup.S3.RoleARN == "" {
			return errors.New("BACKUP_S3_EXTERNAL_ID requires BACKUP_S3_ROLE_ARN")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return errors.New("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return errors.New("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// placeholderPatterns catch keys copied from example configs.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_KEY",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}
