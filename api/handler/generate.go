package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lexdraft/doc-template-service/api/middleware"
	"github.com/lexdraft/doc-template-service/api/model"
	"github.com/lexdraft/doc-template-service/internal/services"
	"github.com/lexdraft/doc-template-service/pkg/jobqueue"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// GenerateHandler serves the document generation endpoints: submit, poll,
// cancel and download.
type GenerateHandler struct {
	queue     jobqueue.Queue
	generator *services.GenerationService
	templates *services.TemplateService
	logger    *logrus.Logger
}

// NewGenerateHandler creates a generation handler.
func NewGenerateHandler(queue jobqueue.Queue, generator *services.GenerationService, templates *services.TemplateService) *GenerateHandler {
	return &GenerateHandler{
		queue:     queue,
		generator: generator,
		templates: templates,
		logger:    middleware.GetLogger(),
	}
}

// SubmitJob enqueues a generation job.
// POST /api/generate
func (h *GenerateHandler) SubmitJob(c *gin.Context) {
	var req model.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid generation request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"template_id is required",
		))
		return
	}

	// Reject unknown templates synchronously instead of queueing a job that
	// can only fail.
	if _, err := h.templates.Get(req.TemplateID); err != nil {
		middleware.HandleError(c, err)
		return
	}

	jobID, err := h.queue.Submit(c.Request.Context(), req.TemplateID, req.Values)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, model.NewSuccessResponse(model.GenerateResponse{
		JobID:      jobID,
		TemplateID: req.TemplateID,
		Status:     string(jobqueue.StateQueued),
	}))
}

// GetJobStatus polls a generation job.
// GET /api/generate/:job_id
func (h *GenerateHandler) GetJobStatus(c *gin.Context) {
	var req model.JobIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"job ID is required",
		))
		return
	}

	job, err := h.queue.Poll(c.Request.Context(), req.JobID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewJobStatusResponse(job)))
}

// CancelJob drops a still-queued generation job.
// DELETE /api/generate/:job_id
func (h *GenerateHandler) CancelJob(c *gin.Context) {
	var req model.JobIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"job ID is required",
		))
		return
	}

	if err := h.queue.Cancel(c.Request.Context(), req.JobID); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{
		"job_id":    req.JobID,
		"cancelled": true,
	}))
}

// DownloadResult streams a finished job's document.
// GET /api/generate/:job_id/download
func (h *GenerateHandler) DownloadResult(c *gin.Context) {
	var req model.JobIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"job ID is required",
		))
		return
	}

	if c.Query("format") == "pdf" {
		h.downloadPDF(c, req.JobID)
		return
	}

	rc, record, err := h.generator.Result(req.JobID)
	if err != nil {
		if record != nil {
			c.JSON(http.StatusConflict, model.NewErrorResponse(
				http.StatusConflict,
				fmt.Sprintf("job is %s, no document available", record.Status),
			))
			return
		}
		middleware.HandleError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.JobID+".docx"))
	c.DataFromReader(http.StatusOK, -1, docxContentType, rc, nil)
}

// downloadPDF renders and streams the artifact as a PDF.
func (h *GenerateHandler) downloadPDF(c *gin.Context, jobID string) {
	pdf, record, err := h.generator.ResultPDF(jobID)
	if err != nil {
		if record != nil {
			c.JSON(http.StatusConflict, model.NewErrorResponse(
				http.StatusConflict,
				fmt.Sprintf("job is %s, no document available", record.Status),
			))
			return
		}
		middleware.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListHistory returns a template's generation history.
// GET /api/templates/:id/generations
func (h *GenerateHandler) ListHistory(c *gin.Context) {
	var uriReq model.TemplateIDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"template ID is required",
		))
		return
	}

	var req model.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid history parameters",
		))
		return
	}

	records, err := h.generator.History(uriReq.ID, req.Limit)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	infos := make([]model.GenerationInfo, len(records))
	for i, rec := range records {
		infos[i] = model.NewGenerationInfo(rec)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.HistoryResponse{
		TemplateID:  uriReq.ID,
		Generations: infos,
	}))
}
