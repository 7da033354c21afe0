// Package cache keeps decoded receipt images so thumbnails are not
// base64-decoded on every request.
package cache

import (
	"container/list"
	"sync"
	"time"

	"udlaeg/internal/core"
)

// ImageCache is an LRU of decoded images bounded by total byte size, with a
// TTL per entry.
type ImageCache struct {
	mu       sync.Mutex
	maxBytes int64
	ttl      time.Duration
	size     int64
	items    map[string]*list.Element
	lru      *list.List
	now      func() time.Time
}

type entry struct {
	key       string
	image     core.Image
	expiresAt time.Time
}

func NewImageCache(maxBytes int64, ttl time.Duration) *ImageCache {
	return &ImageCache{
		maxBytes: maxBytes,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// Get returns the cached image for key and marks it most recently used.
func (c *ImageCache) Get(key string) (core.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return core.Image{}, false
	}
	e := elem.Value.(*entry)
	if c.now().After(e.expiresAt) {
		c.remove(elem)
		return core.Image{}, false
	}
	c.lru.MoveToFront(elem)
	return e.image, true
}

// Set stores img under key. Images larger than the whole budget are not
// cached; otherwise the least recently used entries are evicted until it fits.
func (c *ImageCache) Set(key string, img core.Image) {
	n := int64(len(img.Data))
	if n > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
	elem := c.lru.PushFront(&entry{key: key, image: img, expiresAt: c.now().Add(c.ttl)})
	c.items[key] = elem
	c.size += n

	for c.size > c.maxBytes {
		oldest := c.lru.Back()
		if oldest == nil || oldest == elem {
			break
		}
		c.remove(oldest)
	}
}

func (c *ImageCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// Purge drops every entry.
func (c *ImageCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lru.Init()
	c.size = 0
}

// CleanExpired drops expired entries and returns how many were removed.
func (c *ImageCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Bytes is the total image size currently held.
func (c *ImageCache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *ImageCache) remove(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.lru.Remove(elem)
	c.size -= int64(len(e.image.Data))
}
