package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/lexdraft/doc-template-service/internal/cache"
	"github.com/lexdraft/doc-template-service/internal/docx"
	"github.com/lexdraft/doc-template-service/internal/models"
	"github.com/lexdraft/doc-template-service/internal/repository"
	"github.com/lexdraft/doc-template-service/internal/template"
	"github.com/lexdraft/doc-template-service/pkg/storage"
)

// TemplateService owns the template lifecycle: upload, parse, metadata
// resolution and invalidation. It is the only writer of the metadata cache,
// and it invalidates on every content change so the cache never outlives
// the source of truth by more than its TTL.
type TemplateService struct {
	repo      repository.TemplateRepository
	store     storage.Storage
	metaCache *cache.MetadataCache
	extractor *template.Extractor
	logger    *logrus.Logger
}

// NewTemplateService wires the template service.
func NewTemplateService(
	repo repository.TemplateRepository,
	store storage.Storage,
	metaCache *cache.MetadataCache,
	extractor *template.Extractor,
	logger *logrus.Logger,
) *TemplateService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TemplateService{
		repo:      repo,
		store:     store,
		metaCache: metaCache,
		extractor: extractor,
		logger:    logger,
	}
}

// Upload stores a template source, parses it and persists the record. A
// source from which no run model can be built is rejected synchronously;
// nothing is stored for it.
func (s *TemplateService) Upload(name, category string, reader io.Reader, filename string) (*models.Template, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read template upload: %w", err)
	}

	file, err := docx.Load(content)
	if err != nil {
		return nil, fmt.Errorf("invalid template document: %w", err)
	}

	info, err := s.store.Save(bytes.NewReader(content), filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store template source: %w", err)
	}

	templateID := uuid.New().String()
	meta := template.Parse(templateID, file.Doc, s.extractor)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template metadata: %w", err)
	}

	tpl := &models.Template{
		ID:         templateID,
		Name:       name,
		Category:   category,
		FileID:     info.ID,
		FilePath:   info.Path,
		FileSize:   info.Size,
		Status:     models.TemplateStatusReady,
		FieldCount: len(meta.FieldNames()),
		Metadata:   datatypes.JSON(metaJSON),
	}
	if err := s.repo.Create(tpl); err != nil {
		return nil, fmt.Errorf("failed to persist template record: %w", err)
	}

	s.metaCache.Put(templateID, meta)

	s.logger.WithFields(logrus.Fields{
		"template_id": templateID,
		"name":        name,
		"category":    category,
		"fields":      tpl.FieldCount,
	}).Info("Template uploaded and parsed")

	return tpl, nil
}

// Get fetches a template record.
func (s *TemplateService) Get(id string) (*models.Template, error) {
	return s.repo.GetByID(id)
}

// List returns template records with pagination.
func (s *TemplateService) List(offset, limit int) ([]*models.Template, int64, error) {
	return s.repo.List(offset, limit)
}

// UpdateContent replaces a template's source document. The metadata cache
// entry is invalidated before the new parse lands, so concurrent readers
// fall back to re-extraction rather than serving the old structure.
func (s *TemplateService) UpdateContent(id string, reader io.Reader, filename string) (*models.Template, error) {
	tpl, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read template upload: %w", err)
	}

	file, err := docx.Load(content)
	if err != nil {
		return nil, fmt.Errorf("invalid template document: %w", err)
	}

	s.metaCache.Invalidate(id)

	info, err := s.store.Save(bytes.NewReader(content), filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store template source: %w", err)
	}

	oldFileID := tpl.FileID
	meta := template.Parse(id, file.Doc, s.extractor)
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template metadata: %w", err)
	}

	tpl.FileID = info.ID
	tpl.FilePath = info.Path
	tpl.FileSize = info.Size
	tpl.Status = models.TemplateStatusReady
	tpl.FieldCount = len(meta.FieldNames())
	tpl.Metadata = datatypes.JSON(metaJSON)
	tpl.Error = ""
	if err := s.repo.Update(tpl); err != nil {
		return nil, fmt.Errorf("failed to update template record: %w", err)
	}

	s.metaCache.Put(id, meta)

	if oldFileID != "" && oldFileID != info.ID {
		if err := s.store.Delete(oldFileID); err != nil {
			s.logger.WithError(err).WithField("file_id", oldFileID).
				Warn("Failed to delete superseded template source")
		}
	}

	s.logger.WithField("template_id", id).Info("Template content updated")
	return tpl, nil
}

// Delete removes the template record, its stored source and its cached
// metadata.
func (s *TemplateService) Delete(id string) error {
	tpl, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.metaCache.Invalidate(id)

	if tpl.FileID != "" {
		if err := s.store.Delete(tpl.FileID); err != nil {
			s.logger.WithError(err).WithField("file_id", tpl.FileID).
				Warn("Failed to delete template source from storage")
		}
	}

	s.logger.WithField("template_id", id).Info("Template deleted")
	return nil
}

// Metadata resolves a template's parsed structure, serving from the cache
// when possible and re-extracting from the stored source on a miss.
func (s *TemplateService) Metadata(id string) (*template.Metadata, error) {
	if meta := s.metaCache.Get(id); meta != nil {
		return meta, nil
	}

	tpl, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	file, err := s.loadSource(tpl)
	if err != nil {
		return nil, err
	}

	meta := template.Parse(id, file.Doc, s.extractor)
	s.metaCache.Put(id, meta)
	return meta, nil
}

// loadSource opens and parses a template's stored source document.
func (s *TemplateService) loadSource(tpl *models.Template) (*docx.File, error) {
	rc, err := s.store.Get(tpl.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to open template source: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read template source: %w", err)
	}

	file, err := docx.Load(content)
	if err != nil {
		return nil, fmt.Errorf("invalid template document: %w", err)
	}
	return file, nil
}
