package openai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sync"

	"github.com/couchcryptid/flood-resilience-service/internal/domain"
	"github.com/couchcryptid/flood-resilience-service/internal/observability"
)

// CachedGenerator wraps a RecommendationGenerator with an in-memory LRU cache.
type CachedGenerator struct {
	inner   domain.RecommendationGenerator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGenerator creates a cache decorator around a generator.
func NewCachedGenerator(inner domain.RecommendationGenerator, maxEntries int, metrics *observability.Metrics) *CachedGenerator {
	return &CachedGenerator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGenerator) Generate(ctx context.Context, design domain.BuildingDesign, timeline []domain.TimelineEntry, targetYear int, scenario string) ([]string, error) {
	key := cacheKey(design, timeline, targetYear, scenario)
	if recs, ok := c.cache.get(key); ok {
		c.metrics.GeneratorCache.WithLabelValues("hit").Inc()
		return recs, nil
	}
	c.metrics.GeneratorCache.WithLabelValues("miss").Inc()

	recs, err := c.inner.Generate(ctx, design, timeline, targetYear, scenario)
	if err != nil {
		return recs, err
	}
	// Only cache non-empty results so an empty completion can be retried.
	if len(recs) > 0 {
		c.cache.put(key, recs)
	}
	return recs, nil
}

// cacheKey hashes every input the prompt is built from.
func cacheKey(design domain.BuildingDesign, timeline []domain.TimelineEntry, targetYear int, scenario string) string {
	b, _ := json.Marshal(struct {
		Design   domain.BuildingDesign
		Timeline []domain.TimelineEntry
		Target   int
		Scenario string
	}{design, timeline, targetYear, scenario})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// lruCache is a simple thread-safe LRU cache for recommendation lists.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*entry),
	}
}

// get returns a copy so callers cannot mutate the cached list.
func (c *lruCache) get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return slices.Clone(e.value), true
}

func (c *lruCache) put(key string, value []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value = slices.Clone(value)
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
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
