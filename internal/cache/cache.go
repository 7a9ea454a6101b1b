// Package cache provides a typed read cache over patrickmn/go-cache.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Manager is a typed key/value cache.
type Manager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}

// InMemory is a Manager backed by an in-process go-cache.
type InMemory[K comparable, V any] struct {
	name  string
	cache *gocache.Cache
	key   func(K) string
}

// NewInMemory creates a cache whose entries expire after expiration and are
// swept every cleanup interval. Keys are formatted with keyFn.
func NewInMemory[K comparable, V any](name string, expiration, cleanup time.Duration, keyFn func(K) string) *InMemory[K, V] {
	return &InMemory[K, V]{
		name:  name,
		cache: gocache.New(expiration, cleanup),
		key:   keyFn,
	}
}

// Name returns the cache name used in logs.
func (c *InMemory[K, V]) Name() string {
	return c.name
}

func (c *InMemory[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V
	raw, ok := c.cache.Get(c.key(key))
	if !ok {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

func (c *InMemory[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(c.key(key), value, ttl)
}

func (c *InMemory[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, k := range keys {
		c.cache.Delete(c.key(k))
	}
	return nil
}

func (c *InMemory[K, V]) Flush(context.Context) error {
	c.cache.Flush()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *InMemory[K, V]) Len() int {
	return c.cache.ItemCount()
}
