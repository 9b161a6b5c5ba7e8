// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package alert

import (
	"sync"
	"time"
)

// dedupEntry is a node in the suppression cache's doubly-linked list.
type dedupEntry struct {
	key       string
	prev      *dedupEntry
	next      *dedupEntry
	expiresAt time.Time
}

// DedupCache suppresses repeat alerts for the same finding within a
// suppression window. It is an LRU with TTL: O(1) lookup and insert, O(1)
// eviction when capacity is reached, lazy expiration on read.
//
// The suppression key is (tenant, source, fingerprint, severity), so an
// escalating finding still alerts at each new severity.
type DedupCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration

	items map[string]*dedupEntry

	// head.next is most recently seen, tail.prev least recently seen.
	head *dedupEntry
	tail *dedupEntry
}

// NewDedupCache creates a suppression cache. Non-positive capacity defaults
// to 10000 entries; non-positive ttl defaults to 5 minutes.
func NewDedupCache(capacity int, ttl time.Duration) *DedupCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &DedupCache{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*dedupEntry, capacity),
		head:     &dedupEntry{},
		tail:     &dedupEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Suppress records the key and reports whether an unexpired entry was already
// present. The first call for a key returns false; repeats within the TTL
// return true.
func (c *DedupCache) Suppress(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.items[key]; ok {
		if now.Before(e.expiresAt) {
			e.expiresAt = now.Add(c.ttl)
			c.moveToFront(e)
			return true
		}
		// Expired entry: refresh in place, treat as new.
		e.expiresAt = now.Add(c.ttl)
		c.moveToFront(e)
		return false
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	e := &dedupEntry{key: key, expiresAt: now.Add(c.ttl)}
	c.items[key] = e
	c.insertFront(e)
	return false
}

// Len returns the number of tracked entries, expired included.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *DedupCache) insertFront(e *dedupEntry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *DedupCache) unlink(e *dedupEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *DedupCache) moveToFront(e *dedupEntry) {
	c.unlink(e)
	c.insertFront(e)
}

func (c *DedupCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.unlink(oldest)
	delete(c.items, oldest.key)
}
