package predict

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/fwi-service/internal/domain"
)

// Cache stores successful predictions by key.
type Cache interface {
	Get(ctx context.Context, key string) (domain.Prediction, bool, error)
	Set(ctx context.Context, key string, p domain.Prediction) error
	Backend() string
}

// CachedService wraps a Service with a prediction cache. Only successful
// predictions are cached. Cache failures are logged and skipped.
type CachedService struct {
	*Service
	cache Cache
}

// NewCachedService creates a cache decorator around a service.
func NewCachedService(inner *Service, cache Cache) *CachedService {
	return &CachedService{Service: inner, cache: cache}
}

// Run has the same contract as Service.Run.
func (c *CachedService) Run(ctx context.Context, raw map[string]any, modelName string) (domain.Prediction, error) {
	v, err := domain.ParseFeatures(raw)
	if err != nil {
		// Let the inner service report the rejection.
		return c.Service.Run(ctx, raw, modelName)
	}
	return c.Predict(ctx, v, modelName)
}

// Predict has the same contract as Service.Predict.
// Hits are counted as served predictions like computed ones.
func (c *CachedService) Predict(ctx context.Context, v domain.FeatureVector, modelName string) (domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Prediction{}, err
	}
	start := time.Now()
	key := cacheKey(modelName, v)
	backend := c.cache.Backend()

	p, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.Cache.WithLabelValues(backend, "error").Inc()
		c.logger.Warn("prediction cache read failed", "backend", backend, "error", err)
	case ok:
		c.metrics.Cache.WithLabelValues(backend, "hit").Inc()
		c.observe(p, time.Since(start), true)
		return p, nil
	default:
		c.metrics.Cache.WithLabelValues(backend, "miss").Inc()
	}

	p, err = c.Service.Predict(ctx, v, modelName)
	if err != nil {
		return p, err
	}
	if err := c.cache.Set(ctx, key, p); err != nil {
		c.metrics.Cache.WithLabelValues(backend, "error").Inc()
		c.logger.Warn("prediction cache write failed", "backend", backend, "error", err)
	}
	return p, nil
}

// cacheKey identifies a model and an exact feature vector.
func cacheKey(modelName string, v domain.FeatureVector) string {
	var b strings.Builder
	b.WriteString(modelName)
	for _, x := range v.Values() {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return b.String()
}

// MemoryCache is a thread-safe in-process LRU cache.
type MemoryCache struct {
	lru *lruCache
}

// NewMemoryCache creates an LRU cache holding at most maxEntries predictions.
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{lru: newLRUCache(maxEntries)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (domain.Prediction, bool, error) {
	p, ok := m.lru.get(key)
	return p, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, p domain.Prediction) error {
	m.lru.put(key, p)
	return nil
}

func (m *MemoryCache) Backend() string { return "memory" }

// Len returns the number of cached predictions.
func (m *MemoryCache) Len() int {
	m.lru.mu.Lock()
	defer m.lru.mu.Unlock()
	return len(m.lru.entries)
}

type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*lruEntry
	head       *lruEntry // most recently used
	tail       *lruEntry // least recently used
}

type lruEntry struct {
	key        string
	value      domain.Prediction
	prev, next *lruEntry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		entries:    make(map[string]*lruEntry),
	}
}

func (c *lruCache) get(key string) (domain.Prediction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Prediction{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &lruEntry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		delete(c.entries, c.tail.key)
		c.unlink(c.tail)
	}
}

func (c *lruCache) moveToFront(e *lruEntry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *lruEntry) {
	e.prev, e.next = nil, c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *lruEntry) {
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
