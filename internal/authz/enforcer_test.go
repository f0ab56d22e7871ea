// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEmbeddedPolicy(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t)

	tests := []struct {
		name   string
		role   string
		host   string
		path   string
		method string
		want   bool
	}{
		{"operator creates", RoleOperator, HostOperator, "/actions", "POST", true},
		{"operator lists", RoleOperator, HostOperator, "/actions", "GET", true},
		{"operator reads one", RoleOperator, HostOperator, "/actions/0190b4f0-aaaa", "GET", true},
		{"operator amends", RoleOperator, HostOperator, "/actions/0190b4f0-aaaa", "PUT", true},
		{"operator deletes", RoleOperator, HostOperator, "/actions/0190b4f0-aaaa", "DELETE", true},
		{"operator cannot delete collection", RoleOperator, HostOperator, "/actions", "DELETE", false},
		{"operator redrives", RoleOperator, HostOperator, "/dead-letters/abc/redrive", "POST", true},
		{"operator cannot get redrive", RoleOperator, HostOperator, "/dead-letters/abc/redrive", "GET", false},
		{"operator replays", RoleOperator, HostOperator, "/backups/abc/replay", "POST", true},
		{"operator not on access host", RoleOperator, HostAccess, "/processed-objects", "GET", false},
		{"inzage lists objects", RoleInzage, HostAccess, "/processed-objects", "GET", true},
		{"inzage reads object", RoleInzage, HostAccess, "/processed-objects/6f1c", "GET", true},
		{"inzage cannot post", RoleInzage, HostAccess, "/processed-objects", "POST", false},
		{"inzage not on operator host", RoleInzage, HostOperator, "/actions/abc", "GET", false},
		{"inzage route on operator host", RoleInzage, HostOperator, "/processed-objects", "GET", false},
		{"nested path not matched", RoleOperator, HostOperator, "/actions/a/b", "GET", false},
		{"unknown role", "viewer", HostOperator, "/actions", "GET", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _, err := e.Enforce(tt.role, tt.host, tt.path, tt.method)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%s, %s, %s %s) = %v, want %v", tt.role, tt.host, tt.method, tt.path, got, tt.want)
			}
		})
	}
}

func TestEnforceCachesDecision(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t)

	_, hit, err := e.Enforce(RoleOperator, HostOperator, "/actions", "GET")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if hit {
		t.Error("first Enforce() cacheHit = true, want false")
	}
	allowed, hit, err := e.Enforce(RoleOperator, HostOperator, "/actions", "GET")
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !hit || !allowed {
		t.Errorf("second Enforce() = (%v, hit %v), want (true, hit true)", allowed, hit)
	}
}

func TestEnforceWithoutCache(t *testing.T) {
	t.Parallel()
	e, err := NewEnforcer(&EnforcerConfig{})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	for i := 0; i < 2; i++ {
		_, hit, err := e.Enforce(RoleInzage, HostAccess, "/processed-objects", "GET")
		if err != nil {
			t.Fatalf("Enforce() error = %v", err)
		}
		if hit {
			t.Errorf("Enforce() #%d cacheHit = true, want false", i)
		}
	}
}

func TestPolicyFileOverridesEmbedded(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "policy.csv")
	policy := "p, operator, operator, /actions/:actionId, ^GET$\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	if got := len(e.Policy()); got != 1 {
		t.Errorf("len(Policy()) = %d, want 1", got)
	}
	if ok, _, _ := e.Enforce(RoleOperator, HostOperator, "/actions/x", "GET"); !ok {
		t.Error("GET /actions/x denied, want allowed by file policy")
	}
	if ok, _, _ := e.Enforce(RoleOperator, HostOperator, "/actions/x", "DELETE"); ok {
		t.Error("DELETE /actions/x allowed, want denied by file policy")
	}
}

func TestLoadPolicyClearsCache(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, operator, operator, /actions, ^GET$\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path, CacheEnabled: true, CacheTTL: time.Minute})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	if ok, _, _ := e.Enforce(RoleOperator, HostOperator, "/actions", "POST"); ok {
		t.Fatal("POST /actions allowed before reload")
	}
	if err := os.WriteFile(path, []byte("p, operator, operator, /actions, ^(GET|POST)$\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadPolicy(); err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	ok, hit, _ := e.Enforce(RoleOperator, HostOperator, "/actions", "POST")
	if !ok || hit {
		t.Errorf("Enforce() after reload = (%v, hit %v), want (true, hit false)", ok, hit)
	}
}

func TestNewEnforcerMissingPolicyFile(t *testing.T) {
	t.Parallel()
	_, err := NewEnforcer(&EnforcerConfig{PolicyPath: filepath.Join(t.TempDir(), "absent.csv")})
	if err == nil {
		t.Error("NewEnforcer() error = nil, want missing file error")
	}
}

func TestLoadEmbeddedPolicyRejectsMalformedLine(t *testing.T) {
	t.Parallel()
	e := newTestEnforcer(t)
	if err := loadEmbeddedPolicy(e.enforcer, "p, operator, /actions\n"); err == nil {
		t.Error("loadEmbeddedPolicy() error = nil, want malformed line error")
	}
}
