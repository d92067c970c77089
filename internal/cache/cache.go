package cache

import (
	"time"
)

// Cache is the key-value contract the metadata cache runs on. Any backend
// with get/set-with-ttl/delete semantics qualifies; NopCache (an always-miss
// store) is a valid substitute, so a failed backend can never be fatal.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory builds a cache backend from configuration.
type Factory func(config Config) (Cache, error)

var registry = make(map[string]Factory)

// RegisterCache registers a backend implementation under a type name.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache creates the backend named by config.Type, defaulting to the
// in-memory backend for unknown types.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config holds cache backend settings.
type Config struct {
	// Type selects the backend: "memory", "redis" or "nop".
	Type string
	// RedisAddr is the redis address (redis backend only).
	RedisAddr string
	// RedisPassword is the redis password (redis backend only).
	RedisPassword string
	// RedisDB is the redis database number (redis backend only).
	RedisDB int
	// DefaultTTL is applied when a Set passes ttl 0.
	DefaultTTL time.Duration
	// CleanupInterval is the expiry sweep interval (memory backend only).
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute * 10,
	}
}

// Key builds a namespaced cache key from a prefix and parts.
func Key(prefix string, parts ...string) string {
	key := prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

// NopCache is the degenerate always-miss backend. Writes succeed and are
// discarded; reads always miss.
type NopCache struct{}

// NewNopCache creates an always-miss cache.
func NewNopCache(Config) (Cache, error) {
	return NopCache{}, nil
}

// Get always misses.
func (NopCache) Get(string) (string, bool, error) { return "", false, nil }

// Set discards the value.
func (NopCache) Set(string, string, time.Duration) error { return nil }

// Delete is a no-op.
func (NopCache) Delete(string) error { return nil }

// Clear is a no-op.
func (NopCache) Clear() error { return nil }

func init() {
	RegisterCache("nop", NewNopCache)
}
