package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lexdraft/doc-template-service/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique in-memory database per test.
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(&models.Template{}, &models.GenerationRecord{})
	require.NoError(t, err, "Failed to run migrations")

	return db
}

func TestTemplateRepository_CreateAndGet(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))

	tpl := &models.Template{
		ID:       "tpl-1",
		Name:     "engagement letter",
		Category: "letter",
		FileID:   "file-1",
		FilePath: "2025/07/tpl-1.docx",
		FileSize: 2048,
		Status:   models.TemplateStatusUploaded,
	}
	require.NoError(t, repo.Create(tpl))

	got, err := repo.GetByID("tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "engagement letter", got.Name)
	assert.Equal(t, "letter", got.Category)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, models.ErrTemplateNotFound)
}

func TestTemplateRepository_CreateRequiresID(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))
	assert.Error(t, repo.Create(&models.Template{Name: "no id"}))
}

func TestTemplateRepository_List(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))

	for i := 0; i < 3; i++ {
		tpl := &models.Template{
			ID:        fmt.Sprintf("tpl-%d", i),
			Name:      fmt.Sprintf("template %d", i),
			FileID:    fmt.Sprintf("file-%d", i),
			FilePath:  "path",
			Status:    models.TemplateStatusReady,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(tpl))
	}

	templates, total, err := repo.List(0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, templates, 2)
	assert.Equal(t, "tpl-2", templates[0].ID, "newest first")
}

func TestTemplateRepository_Delete(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))

	tpl := &models.Template{ID: "tpl-del", Name: "x", FileID: "f", FilePath: "p", Status: models.TemplateStatusReady}
	require.NoError(t, repo.Create(tpl))
	require.NoError(t, repo.SaveGeneration(&models.GenerationRecord{
		JobID:      "job-1",
		TemplateID: "tpl-del",
		Status:     "succeeded",
	}))

	require.NoError(t, repo.Delete("tpl-del"))

	_, err := repo.GetByID("tpl-del")
	assert.ErrorIs(t, err, models.ErrTemplateNotFound)

	records, err := repo.ListGenerations("tpl-del", 0)
	require.NoError(t, err)
	assert.Empty(t, records, "generation history goes with the template")

	assert.ErrorIs(t, repo.Delete("tpl-del"), models.ErrTemplateNotFound)
}

func TestTemplateRepository_Generations(t *testing.T) {
	repo := NewTemplateRepository(setupTestDB(t))

	rec := &models.GenerationRecord{
		JobID:      "job-9",
		TemplateID: "tpl-9",
		Status:     "running",
	}
	require.NoError(t, repo.SaveGeneration(rec))

	// Upsert the terminal state under the same job id.
	now := time.Now()
	require.NoError(t, repo.SaveGeneration(&models.GenerationRecord{
		JobID:       "job-9",
		TemplateID:  "tpl-9",
		Status:      "succeeded",
		OutputPath:  "out/job-9.docx",
		CompletedAt: &now,
	}))

	got, err := repo.GetGenerationByJobID("job-9")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", got.Status)
	assert.Equal(t, "out/job-9.docx", got.OutputPath)

	_, err = repo.GetGenerationByJobID("missing")
	assert.ErrorIs(t, err, models.ErrGenerationNotFound)
}
