package repository

import "github.com/lexdraft/doc-template-service/internal/models"

// TemplateRepository stores template records and their generation history.
type TemplateRepository interface {
	// Create inserts a template record.
	Create(tpl *models.Template) error

	// Update saves changes to a template record.
	Update(tpl *models.Template) error

	// GetByID fetches a template by id.
	GetByID(id string) (*models.Template, error)

	// List returns templates with pagination, newest first.
	List(offset, limit int) ([]*models.Template, int64, error)

	// Delete removes a template record.
	Delete(id string) error

	// SaveGeneration inserts or updates a generation record by job id.
	SaveGeneration(rec *models.GenerationRecord) error

	// GetGenerationByJobID fetches a generation record by its job id.
	GetGenerationByJobID(jobID string) (*models.GenerationRecord, error)

	// ListGenerations returns a template's generation history, newest first.
	ListGenerations(templateID string, limit int) ([]*models.GenerationRecord, error)
}
