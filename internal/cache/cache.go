// ABOUTME: In-memory cache with TTL-based expiration for immutable snapshots
// ABOUTME: Concurrent loads of the same key are collapsed with singleflight

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache maps keys to values that expire after a TTL.
type Cache[K comparable, V any] struct {
	store  sync.Map
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its cleanup loop. Call Close to stop it.
func New[K comparable, V any](ttl time.Duration, logger *zap.Logger) *Cache[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache[K, V]{
		ttl:    ttl,
		logger: logger.Named("cache"),
		stop:   make(chan struct{}),
	}
	go c.startCleanup(time.Minute)
	return c
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	val, ok := c.store.Load(key)
	if !ok {
		c.logger.Debug("cache miss", zap.Any("key", key))
		return zero, false
	}

	e := val.(entry[V])
	if time.Now().After(e.expiresAt) {
		c.store.Delete(key)
		c.logger.Debug("cache expired", zap.Any("key", key))
		return zero, false
	}

	c.logger.Debug("cache hit", zap.Any("key", key))
	return e.data, true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.store.Store(key, entry[V]{data: value, expiresAt: time.Now().Add(ttl)})
}

func (c *Cache[K, V]) Clear(key K) {
	c.store.Delete(key)
}

// GetOrLoad returns the cached value or calls load once for all concurrent
// callers asking for the same key. Failed loads are not cached.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	res, err, _ := c.group.Do(fmt.Sprint(key), func() (interface{}, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Close stops the cleanup loop.
func (c *Cache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[K, V]) startCleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

func (c *Cache[K, V]) sweep(now time.Time) {
	c.store.Range(func(key, val interface{}) bool {
		if now.After(val.(entry[V]).expiresAt) {
			c.store.Delete(key)
		}
		return true
	})
}
