package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lexdraft/doc-template-service/internal/models"
)

// templateRepository is the gorm-backed TemplateRepository.
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a template repository on the given database
// connection.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create inserts a template record.
func (r *templateRepository) Create(tpl *models.Template) error {
	if tpl.ID == "" {
		return errors.New("template ID cannot be empty")
	}
	return r.db.Create(tpl).Error
}

// Update saves changes to a template record.
func (r *templateRepository) Update(tpl *models.Template) error {
	if tpl.ID == "" {
		return errors.New("template ID cannot be empty")
	}
	return r.db.Save(tpl).Error
}

// GetByID fetches a template by id.
func (r *templateRepository) GetByID(id string) (*models.Template, error) {
	var tpl models.Template
	err := r.db.Where("id = ?", id).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to query template: %w", err)
	}
	return &tpl, nil
}

// List returns templates with pagination, newest first.
func (r *templateRepository) List(offset, limit int) ([]*models.Template, int64, error) {
	var templates []*models.Template
	var total int64

	if err := r.db.Model(&models.Template{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&templates).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, total, nil
}

// Delete removes a template record and its generation history.
func (r *templateRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", id).Delete(&models.GenerationRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete generation records: %w", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Template{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete template: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return models.ErrTemplateNotFound
		}
		return nil
	})
}

// SaveGeneration inserts or updates a generation record by job id.
func (r *templateRepository) SaveGeneration(rec *models.GenerationRecord) error {
	if rec.JobID == "" {
		return errors.New("generation job ID cannot be empty")
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "job_id"}},
		UpdateAll: true,
	}).Create(rec).Error
}

// GetGenerationByJobID fetches a generation record by its job id.
func (r *templateRepository) GetGenerationByJobID(jobID string) (*models.GenerationRecord, error) {
	var rec models.GenerationRecord
	err := r.db.Where("job_id = ?", jobID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrGenerationNotFound
		}
		return nil, fmt.Errorf("failed to query generation record: %w", err)
	}
	return &rec, nil
}

// ListGenerations returns a template's generation history, newest first.
func (r *templateRepository) ListGenerations(templateID string, limit int) ([]*models.GenerationRecord, error) {
	var records []*models.GenerationRecord
	query := r.db.Where("template_id = ?", templateID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list generation records: %w", err)
	}
	return records, nil
}
