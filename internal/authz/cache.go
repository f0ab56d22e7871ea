// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package authz

import (
	"sync"
	"time"
)

// enforcementCache caches authorization decisions.
type enforcementCache struct {
	ttl        time.Duration
	maxEntries int
	mu         sync.RWMutex
	items      map[string]cacheItem
	stopChan   chan struct{}
	stopOnce   sync.Once
}

type cacheItem struct {
	allowed   bool
	expiresAt time.Time
}

func newEnforcementCache(ttl time.Duration, maxEntries int) *enforcementCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	c := &enforcementCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		items:      make(map[string]cacheItem),
		stopChan:   make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *enforcementCache) key(role, host, path, method string) string {
	return role + "\x00" + host + "\x00" + method + "\x00" + path
}

func (c *enforcementCache) get(role, host, path, method string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[c.key(role, host, path, method)]
	if !ok || time.Now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

// set stores a decision. A full cache is emptied first.
func (c *enforcementCache) set(role, host, path, method string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxEntries {
		c.items = make(map[string]cacheItem)
	}
	c.items[c.key(role, host, path, method)] = cacheItem{
		allowed:   allowed,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *enforcementCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *enforcementCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheItem)
}

// cleanup periodically removes expired items.
func (c *enforcementCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop stops the cleanup goroutine. It is safe to call multiple times.
func (c *enforcementCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
