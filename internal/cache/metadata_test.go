package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdraft/doc-template-service/internal/template"
)

func newMetadataCache(t *testing.T, backend Cache) *MetadataCache {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewMetadataCache(backend, time.Minute, logger)
}

func sampleMetadata() *template.Metadata {
	return &template.Metadata{
		TemplateID: "tpl-1",
		Placeholders: []template.PlaceholderSpan{
			{ParagraphIndex: 0, StartRun: 1, EndRun: 3, Name: "client_name", Bold: true},
			{ParagraphIndex: 2, StartRun: 0, EndRun: 0, Name: "contract_date"},
		},
		FontName:   "Garamond",
		FontSizePt: 11,
	}
}

func TestMetadataCachePutGetInvalidate(t *testing.T) {
	backend, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)
	c := newMetadataCache(t, backend)

	assert.Nil(t, c.Get("tpl-1"), "empty cache misses")

	meta := sampleMetadata()
	c.Put("tpl-1", meta)

	got := c.Get("tpl-1")
	require.NotNil(t, got)
	assert.Equal(t, meta, got, "put followed by get returns identical metadata")

	c.Invalidate("tpl-1")
	assert.Nil(t, c.Get("tpl-1"), "invalidate drops the entry")
}

func TestMetadataCacheOverwrites(t *testing.T) {
	backend, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)
	c := newMetadataCache(t, backend)

	c.Put("tpl-1", sampleMetadata())

	updated := sampleMetadata()
	updated.FontName = "Arial"
	c.Put("tpl-1", updated)

	got := c.Get("tpl-1")
	require.NotNil(t, got)
	assert.Equal(t, "Arial", got.FontName, "put overwrites unconditionally")
}

// failingCache simulates an unavailable backend.
type failingCache struct{}

func (failingCache) Get(string) (string, bool, error)        { return "", false, errors.New("backend down") }
func (failingCache) Set(string, string, time.Duration) error { return errors.New("backend down") }
func (failingCache) Delete(string) error                     { return errors.New("backend down") }
func (failingCache) Clear() error                            { return errors.New("backend down") }

// TestMetadataCacheDegradesToMiss verifies graceful degradation: a failed
// backend behaves like an always-miss cache and never surfaces an error.
func TestMetadataCacheDegradesToMiss(t *testing.T) {
	c := newMetadataCache(t, failingCache{})

	c.Put("tpl-1", sampleMetadata())
	assert.Nil(t, c.Get("tpl-1"))
	c.Invalidate("tpl-1")
}

func TestMetadataCacheCorruptEntryIsAMiss(t *testing.T) {
	backend, err := NewMemoryCache(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, backend.Set(Key(metadataKeyPrefix, "tpl-1"), "{not json", time.Minute))

	c := newMetadataCache(t, backend)
	assert.Nil(t, c.Get("tpl-1"))
}

func TestMetadataCacheNilBackendIsNop(t *testing.T) {
	c := newMetadataCache(t, nil)
	c.Put("tpl-1", sampleMetadata())
	assert.Nil(t, c.Get("tpl-1"))
}
