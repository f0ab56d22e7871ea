// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// PolicyPath is the path to a Casbin policy file.
	// If empty, uses embedded policy.
	PolicyPath string

	// ReloadInterval is how often a policy file is reloaded. Zero disables
	// reloading.
	ReloadInterval time.Duration

	// CacheEnabled enables enforcement decision caching.
	CacheEnabled bool

	// CacheTTL is how long to cache decisions.
	CacheTTL time.Duration

	// CacheMaxEntries bounds the decision cache. Request paths carry ids,
	// so the key space is open.
	CacheMaxEntries int
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		ReloadInterval:  30 * time.Second,
		CacheEnabled:    true,
		CacheTTL:        time.Minute,
		CacheMaxEntries: 10000,
	}
}

// Enforcer wraps the Casbin enforcer. A request is a (role, host, path,
// method) tuple; routes are matched with keyMatch2 and methods with
// regexMatch.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer creates a new authorization enforcer.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if config.PolicyPath != "" {
		if !fileExists(config.PolicyPath) {
			return nil, fmt.Errorf("policy file %s not found", config.PolicyPath)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(config.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if config.PolicyPath != "" && config.ReloadInterval > 0 {
		enforcer.StartAutoLoadPolicy(config.ReloadInterval)
	}

	e := &Enforcer{
		config:   config,
		enforcer: enforcer,
	}
	if config.CacheEnabled {
		e.cache = newEnforcementCache(config.CacheTTL, config.CacheMaxEntries)
	}
	return e, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if parts[0] != "p" || len(parts) != 5 {
			return fmt.Errorf("malformed policy line %q", line)
		}
		if _, err := enforcer.AddPolicy(parts[1:]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}

// Enforce reports whether role may call method on path at host.
func (e *Enforcer) Enforce(role, host, path, method string) (allowed, cacheHit bool, err error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(role, host, path, method); ok {
			return allowed, true, nil
		}
	}

	allowed, err = e.enforcer.Enforce(role, host, path, method)
	if err != nil {
		return false, false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, host, path, method, allowed)
	}
	return allowed, false, nil
}

// LoadPolicy reloads the policy file. It is a no-op for the embedded
// policy.
func (e *Enforcer) LoadPolicy() error {
	if e.config.PolicyPath == "" {
		return nil
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return nil
}

// Policy returns all policy rules.
func (e *Enforcer) Policy() [][]string {
	//nolint:errcheck // GetPolicy only fails if enforcer is nil, which is a programming error
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// Close stops policy reloading and the cache janitor.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
	if e.cache != nil {
		e.cache.stop()
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
