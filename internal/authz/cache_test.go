// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	t.Parallel()
	c := newEnforcementCache(time.Minute, 10)
	defer c.stop()

	if _, ok := c.get(RoleOperator, HostOperator, "/actions", "GET"); ok {
		t.Fatal("get() on empty cache ok = true")
	}
	c.set(RoleOperator, HostOperator, "/actions", "GET", true)
	c.set(RoleOperator, HostOperator, "/actions", "DELETE", false)

	if allowed, ok := c.get(RoleOperator, HostOperator, "/actions", "GET"); !ok || !allowed {
		t.Errorf("get(GET) = (%v, %v), want (true, true)", allowed, ok)
	}
	if allowed, ok := c.get(RoleOperator, HostOperator, "/actions", "DELETE"); !ok || allowed {
		t.Errorf("get(DELETE) = (%v, %v), want (false, true)", allowed, ok)
	}
	if _, ok := c.get(RoleOperator, HostAccess, "/actions", "GET"); ok {
		t.Error("get() for another host ok = true")
	}
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	c := newEnforcementCache(10*time.Millisecond, 10)
	defer c.stop()

	c.set(RoleInzage, HostAccess, "/processed-objects", "GET", true)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.get(RoleInzage, HostAccess, "/processed-objects", "GET"); ok {
		t.Error("get() after ttl ok = true, want false")
	}
}

func TestCacheBounded(t *testing.T) {
	t.Parallel()
	c := newEnforcementCache(time.Minute, 3)
	defer c.stop()

	for _, id := range []string{"a", "b", "c", "d"} {
		c.set(RoleOperator, HostOperator, "/actions/"+id, "GET", true)
	}
	if got := c.size(); got > 3 {
		t.Errorf("size() = %d, want <= 3", got)
	}
	if _, ok := c.get(RoleOperator, HostOperator, "/actions/d", "GET"); !ok {
		t.Error("latest entry missing after reset")
	}
}

func TestCacheClearAndStopIdempotent(t *testing.T) {
	t.Parallel()
	c := newEnforcementCache(time.Minute, 10)
	c.set(RoleOperator, HostOperator, "/actions", "GET", true)
	c.clear()
	if got := c.size(); got != 0 {
		t.Errorf("size() after clear = %d, want 0", got)
	}
	c.stop()
	c.stop()
}
