package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU cache with TTL and size-based eviction. The dashboard uses it to
// memoize computed views keyed by their canonical filter string.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache with TTL
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves a value from the cache
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := el.Value.(*entry[T])
	if time.Now().After(item.expiresAt) {
		c.evict(el)
		return zero, false
	}

	c.order.MoveToFront(el)
	return item.data, true
}

// Set stores a value in the cache
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &entry[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if el, exists := c.items[key]; exists {
		el.Value = item
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(item)
	c.items[key] = el

	if c.order.Len() > c.maxSize {
		if tail := c.order.Back(); tail != nil {
			c.evict(tail)
		}
	}
}

// Delete removes a key from the cache
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, exists := c.items[key]; exists {
		c.evict(el)
	}
}

// Flush drops every entry. Used by the dataset refresh hook: once the base
// table changes, every computed view is stale regardless of its key.
func (c *LRUCache[T]) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	c.items = make(map[string]*list.Element)
	c.order.Init()
	return n
}

func (c *LRUCache[T]) evict(el *list.Element) {
	item := el.Value.(*entry[T])
	delete(c.items, item.key)
	c.order.Remove(el)
}

// CleanExpired removes all expired entries and returns count of removed items
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element

	for el := c.order.Front(); el != nil; el = el.Next() {
		item := el.Value.(*entry[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, el)
		}
	}

	for _, el := range toRemove {
		c.evict(el)
	}

	return len(toRemove)
}

// Size returns the current number of items in the cache
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
