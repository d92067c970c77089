package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/lexdraft/doc-template-service/internal/docx"
	"github.com/lexdraft/doc-template-service/internal/export"
	"github.com/lexdraft/doc-template-service/internal/models"
	"github.com/lexdraft/doc-template-service/internal/repository"
	"github.com/lexdraft/doc-template-service/internal/template"
	"github.com/lexdraft/doc-template-service/pkg/jobqueue"
	"github.com/lexdraft/doc-template-service/pkg/storage"
)

// GenerationService turns a template plus a value map into a finished
// document. It runs inside the job queue's worker pool; the handlers only
// submit and poll.
type GenerationService struct {
	repo      repository.TemplateRepository
	store     storage.Storage
	templates *TemplateService
	engine    *template.Engine
	logger    *logrus.Logger
}

// NewGenerationService wires the generation service.
func NewGenerationService(
	repo repository.TemplateRepository,
	store storage.Storage,
	templates *TemplateService,
	engine *template.Engine,
	logger *logrus.Logger,
) *GenerationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &GenerationService{
		repo:      repo,
		store:     store,
		templates: templates,
		engine:    engine,
		logger:    logger,
	}
}

// Processor adapts the service into the queue's worker callback. Every run,
// successful or not, leaves a generation record behind for history queries.
func (s *GenerationService) Processor() jobqueue.Processor {
	return func(ctx context.Context, job *jobqueue.GenerationJob) (string, error) {
		resultID, err := s.process(ctx, job)
		s.recordOutcome(job, resultID, err)
		return resultID, err
	}
}

// process performs one generation: resolve the template, substitute the
// submitted values into a fresh copy of the source and store the artifact.
// The returned string is the artifact's file id in storage.
func (s *GenerationService) process(ctx context.Context, job *jobqueue.GenerationJob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tpl, err := s.repo.GetByID(job.TemplateID)
	if err != nil {
		return "", fmt.Errorf("failed to load template %s: %w", job.TemplateID, err)
	}

	meta, err := s.templates.Metadata(tpl.ID)
	if err != nil {
		return "", err
	}

	file, err := s.templates.loadSource(tpl)
	if err != nil {
		return "", err
	}

	skipped := s.engine.Substitute(file.Doc, meta.Placeholders, job.Values, meta.Profile(), tpl.Category)
	if len(skipped) > 0 {
		s.logger.WithFields(logrus.Fields{
			"job_id":      job.ID,
			"template_id": tpl.ID,
			"fields":      skipped,
		}).Info("Fields left blank: no value submitted")
	}

	output, err := file.Bytes()
	if err != nil {
		return "", fmt.Errorf("failed to serialize generated document: %w", err)
	}

	outputName := fmt.Sprintf("%s-%s.docx", sanitizeFilename(tpl.Name), job.ID[:8])
	info, err := s.store.Save(bytes.NewReader(output), outputName)
	if err != nil {
		return "", fmt.Errorf("failed to store generated document: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"template_id": tpl.ID,
		"file_id":     info.ID,
		"size":        info.Size,
	}).Info("Document generated")

	return info.ID, nil
}

// recordOutcome persists the job's terminal state. Persistence failures are
// logged, not propagated: the queue's own job record still reflects the
// outcome.
func (s *GenerationService) recordOutcome(job *jobqueue.GenerationJob, resultID string, procErr error) {
	now := time.Now()
	record := &models.GenerationRecord{
		JobID:       job.ID,
		TemplateID:  job.TemplateID,
		OutputPath:  resultID,
		CompletedAt: &now,
	}
	if procErr != nil {
		record.Status = string(jobqueue.StateFailed)
		record.Error = procErr.Error()
	} else {
		record.Status = string(jobqueue.StateSucceeded)
	}
	if values, err := json.Marshal(job.Values); err == nil {
		record.Values = datatypes.JSON(values)
	}

	if err := s.repo.SaveGeneration(record); err != nil {
		s.logger.WithError(err).WithField("job_id", job.ID).Error("Failed to persist generation record")
	}
}

// Result opens a finished job's artifact by job id.
func (s *GenerationService) Result(jobID string) (io.ReadCloser, *models.GenerationRecord, error) {
	record, err := s.repo.GetGenerationByJobID(jobID)
	if err != nil {
		return nil, nil, err
	}
	if record.Status != string(jobqueue.StateSucceeded) || record.OutputPath == "" {
		return nil, record, fmt.Errorf("job %s produced no artifact", jobID)
	}

	rc, err := s.store.Get(record.OutputPath)
	if err != nil {
		return nil, record, fmt.Errorf("failed to open generated document: %w", err)
	}
	return rc, record, nil
}

// ResultPDF renders a finished job's artifact as a PDF.
func (s *GenerationService) ResultPDF(jobID string) ([]byte, *models.GenerationRecord, error) {
	rc, record, err := s.Result(jobID)
	if err != nil {
		return nil, record, err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, record, fmt.Errorf("failed to read generated document: %w", err)
	}

	file, err := docx.Load(content)
	if err != nil {
		return nil, record, fmt.Errorf("invalid generated document: %w", err)
	}

	pdf, err := export.RenderPDF(file.Doc)
	if err != nil {
		return nil, record, fmt.Errorf("failed to render pdf: %w", err)
	}
	return pdf, record, nil
}

// History lists generation records for a template.
func (s *GenerationService) History(templateID string, limit int) ([]*models.GenerationRecord, error) {
	return s.repo.ListGenerations(templateID, limit)
}

// sanitizeFilename keeps artifact names filesystem-safe.
func sanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
	if cleaned == "" {
		return "document"
	}
	return cleaned
}
