// ABOUTME: Thread-safe TTL cache for list responses keyed by resource and normalized query
// ABOUTME: Size bounded with oldest-first eviction and a background cleanup goroutine

package cache

import (
	"container/list"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"
)

// Key identifies a cached response: the resource path and its encoded query.
type Key struct {
	Resource string
	Query    string
}

// URL joins the resource and query into a request path.
func (k Key) URL() string {
	if k.Query == "" {
		return k.Resource
	}
	if strings.Contains(k.Resource, "?") {
		return k.Resource + "&" + k.Query
	}
	return k.Resource + "?" + k.Query
}

// ParseKey splits a request path such as a next-page link into a Key.
func ParseKey(link string) Key {
	resource, query, _ := strings.Cut(link, "?")
	return Key{Resource: resource, Query: query}
}

// Normalized returns k with its query pairs canonically escaped and sorted,
// so links that differ only in parameter order or escaping share one entry.
func (k Key) Normalized() Key {
	if k.Query == "" {
		return k
	}
	pairs := strings.Split(k.Query, "&")
	out := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		out = append(out, canonical(name)+"="+canonical(value))
	}
	slices.Sort(out)
	return Key{Resource: k.Resource, Query: strings.Join(out, "&")}
}

func canonical(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		s = u
	}
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// entry stores a value, when it was stored, and its position in the order list.
type entry[V any] struct {
	value   V
	stored  time.Time
	element *list.Element
}

// Cache holds values for a bounded time and a bounded number of keys.
// Uses a doubly-linked list to maintain insertion order for O(1) eviction.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[Key]*entry[V]
	order   *list.List // keys, least recently stored at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a cache with the given TTL and maximum number of keys.
// A background goroutine periodically removes expired entries until Close.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &Cache[V]{
		entries: make(map[Key]*entry[V]),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Get returns the value stored for key if it has not expired.
func (c *Cache[V]) Get(key Key) (V, bool) {
	key = key.Normalized()
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Since(e.stored) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value for key, replacing any previous value. If the cache is at
// capacity the oldest entry is evicted to make room.
func (c *Cache[V]) Set(key Key, value V) {
	key = key.Normalized()
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.stored = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushBack(key)
	c.entries[key] = &entry[V]{value: value, stored: now, element: elem}
}

// Delete removes key.
func (c *Cache[V]) Delete(key Key) {
	key = key.Normalized()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Invalidate removes every entry for resource, whatever its query, and
// returns how many were removed.
func (c *Cache[V]) Invalidate(resource string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if key.Resource == resource {
			c.removeLocked(key)
			n++
		}
	}
	return n
}

// Len returns the number of entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// removeLocked deletes key. Must be called with mu held.
func (c *Cache[V]) removeLocked(key Key) {
	if e, ok := c.entries[key]; ok {
		c.order.Remove(e.element)
		delete(c.entries, key)
	}
}

// evictOldest removes the least recently stored entry. Must be called with mu held.
func (c *Cache[V]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(Key)
	c.order.Remove(front)
	delete(c.entries, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runCleanup()
		case <-c.done:
			return
		}
	}
}

// runCleanup removes all expired entries.
func (c *Cache[V]) runCleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, e := range c.entries {
		if now.Sub(e.stored) >= c.ttl {
			c.order.Remove(e.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. It is safe to call multiple times.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
