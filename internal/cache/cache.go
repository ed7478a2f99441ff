// Package cache memoizes remote lookups for a fixed time window. Concurrent
// misses on the same key share a single load.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxEntries bounds a cache created without WithMaxEntries.
const DefaultMaxEntries = 1024

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL cache of V values keyed by string. Errors are never cached.
type Cache[V any] struct {
	name       string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	metrics    *Metrics

	mu      sync.Mutex
	entries map[string]entry[V]
	epoch   uint64

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	maxEntries int
	now        func() time.Time
	metrics    *Metrics
}

// WithMaxEntries caps the number of stored entries.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// WithNow replaces the time source used for expiry.
func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMetrics records hits and misses under the cache's name.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a cache whose entries live for ttl. A non-positive ttl disables
// storage; loads are still deduplicated.
func New[V any](name string, ttl time.Duration, opts ...Option) *Cache[V] {
	o := options{maxEntries: DefaultMaxEntries, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxEntries < 1 {
		o.maxEntries = DefaultMaxEntries
	}
	return &Cache[V]{
		name:       name,
		ttl:        ttl,
		maxEntries: o.maxEntries,
		now:        o.now,
		metrics:    o.metrics,
		entries:    make(map[string]entry[V]),
	}
}

// Name returns the cache name used in metrics.
func (c *Cache[V]) Name() string {
	return c.name
}

// Get returns the cached value for key or calls load to produce it. The load
// runs detached from ctx so one caller giving up does not fail the others
// waiting on the same key; Get itself returns as soon as ctx is done.
func (c *Cache[V]) Get(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		c.metrics.record(c.name, resultHit)
		return v, nil
	}
	c.metrics.record(c.name, resultMiss)

	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.store(key, v, epoch)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Invalidate drops key. A load already in flight for key will not store its
// result.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.epoch++
	c.group.Forget(key)
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.epoch++
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) store(key string, v V, epoch uint64) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry[V]{value: v, expiresAt: now.Add(c.ttl)}
}

// evictLocked removes expired entries, or the entry closest to expiry when
// none have expired.
func (c *Cache[V]) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	removed := false
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed = true
			continue
		}
		if !found || e.expiresAt.Before(oldest) {
			oldestKey, oldest, found = k, e.expiresAt, true
		}
	}
	if !removed && found {
		delete(c.entries, oldestKey)
	}
}

const (
	resultHit  = "hit"
	resultMiss = "miss"
)

// Metrics counts cache lookups.
type Metrics struct {
	lookups *prometheus.CounterVec
}

// NewMetrics creates and registers the cache collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result (hit or miss).",
		}, []string{"cache", "result"}),
	}
	reg.MustRegister(m.lookups)
	return m
}

func (m *Metrics) record(name, result string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(name, result).Inc()
}
