package openweather

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/rain-prediction-service/internal/domain"
	"github.com/couchcryptid/rain-prediction-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps a WeatherSource with a size-bounded, TTL-expiring cache
// keyed by location name. Only successful observations are cached.
type CachedSource struct {
	inner   domain.WeatherSource
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a weather source.
func NewCachedSource(inner domain.WeatherSource, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedSource) Current(ctx context.Context, location string) (domain.WeatherObservation, error) {
	key := strings.TrimSpace(location)
	obs, state := c.cache.get(key, c.clock.Now())
	c.metrics.WeatherCache.WithLabelValues(state).Inc()
	if state == cacheHit {
		return obs, nil
	}
	return c.fetch(ctx, key)
}

// Refresh fetches a fresh observation and replaces any cached entry.
func (c *CachedSource) Refresh(ctx context.Context, location string) error {
	_, err := c.fetch(ctx, strings.TrimSpace(location))
	return err
}

func (c *CachedSource) fetch(ctx context.Context, key string) (domain.WeatherObservation, error) {
	obs, err := c.inner.Current(ctx, key)
	if err != nil {
		return obs, err
	}
	c.cache.put(key, obs, c.clock.Now().Add(c.ttl))
	return obs, nil
}

// Lookup results.
const (
	cacheHit     = "hit"
	cacheMiss    = "miss"
	cacheExpired = "expired"
)

// lruCache is a simple thread-safe LRU cache for observations with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     domain.WeatherObservation
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (domain.WeatherObservation, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.WeatherObservation{}, cacheMiss
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return domain.WeatherObservation{}, cacheExpired
	}
	c.moveToFront(e)
	return e.value, cacheHit
}

func (c *lruCache) put(key string, value domain.WeatherObservation, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
