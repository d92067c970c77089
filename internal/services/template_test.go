package services

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdraft/doc-template-service/internal/cache"
	"github.com/lexdraft/doc-template-service/internal/database"
	"github.com/lexdraft/doc-template-service/internal/docx"
	"github.com/lexdraft/doc-template-service/internal/models"
	"github.com/lexdraft/doc-template-service/internal/repository"
	"github.com/lexdraft/doc-template-service/internal/template"
	"github.com/lexdraft/doc-template-service/pkg/storage"
)

var testDBCounter int64

// testEnv wires the service layer on real components: an in-memory sqlite
// database, local filesystem storage and the in-memory cache backend.
type testEnv struct {
	repo      repository.TemplateRepository
	store     storage.Storage
	metaCache *cache.MetadataCache
	templates *TemplateService
	generator *GenerationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := database.Setup(&database.Config{
		Type:         "sqlite",
		DSN:          dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		MaxLifetime:  time.Hour,
	}, logger)
	require.NoError(t, err)

	repo := repository.NewTemplateRepository(db)

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	backend, err := cache.NewCache(cache.DefaultConfig())
	require.NoError(t, err)
	metaCache := cache.NewMetadataCache(backend, time.Minute, logger)

	extractor, err := template.NewExtractor(template.DefaultMarkerSyntax(), logger)
	require.NoError(t, err)

	templates := NewTemplateService(repo, store, metaCache, extractor, logger)
	engine := template.NewEngine(template.NewRegistry(logger), logger)
	generator := NewGenerationService(repo, store, templates, engine, logger)

	return &testEnv{
		repo:      repo,
		store:     store,
		metaCache: metaCache,
		templates: templates,
		generator: generator,
	}
}

// buildDocx serializes a run model into real DOCX bytes.
func buildDocx(t *testing.T, paragraphs ...docx.Paragraph) []byte {
	t.Helper()
	f := docx.New()
	f.Doc.Paragraphs = paragraphs
	data, err := f.Bytes()
	require.NoError(t, err)
	return data
}

// letterFixture is a small letter template with three placeholders, each in
// its own run the way a word processor splits styled text.
func letterFixture(t *testing.T) []byte {
	t.Helper()
	return buildDocx(t,
		docx.Paragraph{Runs: []docx.Run{
			{Text: "Dear ", FontName: "Times New Roman", FontSizePt: docx.FontSize(12)},
			{Text: "{CLIENT_NAME}"},
			{Text: ",", FontName: "Times New Roman", FontSizePt: docx.FontSize(12)},
		}},
		docx.Paragraph{Runs: []docx.Run{
			{Text: "Your hearing is on ", FontName: "Times New Roman", FontSizePt: docx.FontSize(12)},
			{Text: "{hearing_date}"},
			{Text: " at ", FontName: "Times New Roman", FontSizePt: docx.FontSize(12)},
			{Text: "{court_address}"},
			{Text: ".", FontName: "Times New Roman", FontSizePt: docx.FontSize(12)},
		}},
	)
}

func TestTemplateServiceUpload(t *testing.T) {
	env := newTestEnv(t)

	tpl, err := env.templates.Upload("Engagement Letter", "letter", bytes.NewReader(letterFixture(t)), "letter.docx")
	require.NoError(t, err)

	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, models.TemplateStatusReady, tpl.Status)
	assert.Equal(t, 3, tpl.FieldCount)
	assert.NotEmpty(t, tpl.FileID)

	exists, err := env.store.Exists(tpl.FileID)
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := env.templates.Get(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.FileID, stored.FileID)
}

func TestTemplateServiceUploadRejectsInvalidSource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.templates.Upload("Broken", "letter", bytes.NewReader([]byte("not a docx")), "broken.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid template document")

	// Nothing was stored for the rejected upload.
	files, err := env.store.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestTemplateServiceMetadata(t *testing.T) {
	env := newTestEnv(t)

	tpl, err := env.templates.Upload("Letter", "letter", bytes.NewReader(letterFixture(t)), "letter.docx")
	require.NoError(t, err)

	meta, err := env.templates.Metadata(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, meta.TemplateID)
	assert.Equal(t, []string{"client_name", "hearing_date", "court_address"}, meta.FieldNames())
	assert.Equal(t, "Times New Roman", meta.FontName)
	assert.Equal(t, 12.0, meta.FontSizePt)

	// A cold cache falls back to re-extraction from the stored source.
	env.metaCache.Invalidate(tpl.ID)
	meta, err = env.templates.Metadata(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"client_name", "hearing_date", "court_address"}, meta.FieldNames())

	_, err = env.templates.Metadata("no-such-template")
	assert.ErrorIs(t, err, models.ErrTemplateNotFound)
}

func TestTemplateServiceUpdateContent(t *testing.T) {
	env := newTestEnv(t)

	tpl, err := env.templates.Upload("Letter", "letter", bytes.NewReader(letterFixture(t)), "letter.docx")
	require.NoError(t, err)
	oldFileID := tpl.FileID

	replacement := buildDocx(t, docx.Paragraph{Runs: []docx.Run{
		{Text: "To {recipient}: matter {matter_ref} is closed."},
	}})
	updated, err := env.templates.UpdateContent(tpl.ID, bytes.NewReader(replacement), "letter-v2.docx")
	require.NoError(t, err)

	assert.NotEqual(t, oldFileID, updated.FileID)
	assert.Equal(t, 2, updated.FieldCount)

	// The metadata cache serves the new structure, not the old one.
	meta, err := env.templates.Metadata(tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"recipient", "matter_ref"}, meta.FieldNames())

	// The superseded source is gone from storage.
	exists, err := env.store.Exists(oldFileID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTemplateServiceDelete(t *testing.T) {
	env := newTestEnv(t)

	tpl, err := env.templates.Upload("Letter", "letter", bytes.NewReader(letterFixture(t)), "letter.docx")
	require.NoError(t, err)

	require.NoError(t, env.templates.Delete(tpl.ID))

	_, err = env.templates.Get(tpl.ID)
	assert.ErrorIs(t, err, models.ErrTemplateNotFound)

	exists, err := env.store.Exists(tpl.FileID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, env.templates.Delete(tpl.ID), models.ErrTemplateNotFound)
}

func TestTemplateServiceList(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		_, err := env.templates.Upload(fmt.Sprintf("Template %d", i), "letter", bytes.NewReader(letterFixture(t)), "letter.docx")
		require.NoError(t, err)
	}

	templates, total, err := env.templates.List(0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, templates, 2)
}
