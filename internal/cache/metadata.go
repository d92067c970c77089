package cache

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lexdraft/doc-template-service/internal/template"
)

const metadataKeyPrefix = "template:metadata"

// MetadataCache memoizes parsed template metadata per template id. Reads and
// writes are safe under concurrent access because the backend is; staleness
// is bounded by the TTL plus explicit invalidation on template change.
//
// A failing backend is treated as an always-miss cache: errors are logged
// and the caller re-extracts, never fails.
type MetadataCache struct {
	backend Cache
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewMetadataCache wraps a cache backend as a template metadata cache.
func NewMetadataCache(backend Cache, ttl time.Duration, logger *logrus.Logger) *MetadataCache {
	if backend == nil {
		backend = NopCache{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &MetadataCache{backend: backend, ttl: ttl, logger: logger}
}

// Get returns the cached metadata for a template, or nil on a miss. Backend
// failures degrade to a miss.
func (c *MetadataCache) Get(templateID string) *template.Metadata {
	raw, found, err := c.backend.Get(Key(metadataKeyPrefix, templateID))
	if err != nil {
		c.logger.WithError(err).WithField("template_id", templateID).
			Warn("Metadata cache read failed, treating as miss")
		return nil
	}
	if !found {
		return nil
	}

	var meta template.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		c.logger.WithError(err).WithField("template_id", templateID).
			Warn("Corrupt metadata cache entry, treating as miss")
		return nil
	}
	return &meta
}

// Put stores metadata for a template, overwriting unconditionally.
func (c *MetadataCache) Put(templateID string, meta *template.Metadata) {
	raw, err := json.Marshal(meta)
	if err != nil {
		c.logger.WithError(err).WithField("template_id", templateID).
			Warn("Failed to encode template metadata for caching")
		return
	}
	if err := c.backend.Set(Key(metadataKeyPrefix, templateID), string(raw), c.ttl); err != nil {
		c.logger.WithError(err).WithField("template_id", templateID).
			Warn("Metadata cache write failed")
	}
}

// Invalidate drops a template's cached metadata. Callers must invoke this on
// every template content change; the cache holds no subscription to the
// source of truth.
func (c *MetadataCache) Invalidate(templateID string) {
	if err := c.backend.Delete(Key(metadataKeyPrefix, templateID)); err != nil {
		c.logger.WithError(err).WithField("template_id", templateID).
			Warn("Metadata cache invalidation failed")
	}
}
