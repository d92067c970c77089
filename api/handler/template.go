package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lexdraft/doc-template-service/api/middleware"
	"github.com/lexdraft/doc-template-service/api/model"
	"github.com/lexdraft/doc-template-service/internal/services"
)

// TemplateHandler serves the template management endpoints.
type TemplateHandler struct {
	templates *services.TemplateService
	logger    *logrus.Logger
}

// NewTemplateHandler creates a template handler.
func NewTemplateHandler(templates *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		logger:    middleware.GetLogger(),
	}
}

// UploadTemplate handles a template upload.
// POST /api/templates
func (h *TemplateHandler) UploadTemplate(c *gin.Context) {
	var req model.TemplateUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid template upload request")
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid request parameters",
		))
		return
	}

	filename := req.File.Filename
	if !strings.EqualFold(filepath.Ext(filename), ".docx") {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"unsupported file type, only .docx templates are accepted",
		))
		return
	}

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": filename,
		}).Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to open uploaded file",
		))
		return
	}
	defer file.Close()

	tpl, err := h.templates.Upload(req.Name, req.Category, file, filename)
	if err != nil {
		if strings.Contains(err.Error(), "invalid template document") {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"the uploaded file is not a readable document",
			))
			return
		}
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewTemplateInfo(tpl)))
}

// GetTemplate returns one template record.
// GET /api/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	var req model.TemplateIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"template ID is required",
		))
		return
	}

	tpl, err := h.templates.Get(req.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewTemplateInfo(tpl)))
}

// ListTemplates returns templates with pagination.
// GET /api/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var req model.TemplateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"invalid pagination parameters",
		))
		return
	}

	page := req.GetPage()
	pageSize := req.GetPageSize()
	templates, total, err := h.templates.List((page-1)*pageSize, pageSize)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	infos := make([]model.TemplateInfo, len(templates))
	for i, tpl := range templates {
		infos[i] = model.NewTemplateInfo(tpl)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.TemplateListResponse{
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
		Templates: infos,
	}))
}

// GetTemplateFields returns the fillable fields and default styling of a
// template.
// GET /api/templates/:id/fields
func (h *TemplateHandler) GetTemplateFields(c *gin.Context) {
	var req model.TemplateIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"template ID is required",
		))
		return
	}

	meta, err := h.templates.Metadata(req.ID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewTemplateFieldsResponse(meta)))
}

// UpdateTemplateContent replaces a template's source document.
// PUT /api/templates/:id/content
func (h *TemplateHandler) UpdateTemplateContent(c *gin.Context) {
	var uriReq model.TemplateIDRequest
	if err := c.ShouldBindUri(&uriReq); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"template ID is required",
		))
		return
	}

	var req model.TemplateUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"replacement file is required",
		))
		return
	}

	file, err := req.File.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse(
			http.StatusInternalServerError,
			"failed to open uploaded file",
		))
		return
	}
	defer file.Close()

	tpl, err := h.templates.UpdateContent(uriReq.ID, file, req.File.Filename)
	if err != nil {
		if strings.Contains(err.Error(), "invalid template document") {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse(
				http.StatusBadRequest,
				"the uploaded file is not a readable document",
			))
			return
		}
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.NewTemplateInfo(tpl)))
}

// DeleteTemplate removes a template, its stored source and its history.
// DELETE /api/templates/:id
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	var req model.TemplateIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(
			http.StatusBadRequest,
			"template ID is required",
		))
		return
	}

	if err := h.templates.Delete(req.ID); err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.TemplateDeleteResponse{
		Success: true,
		ID:      req.ID,
	}))
}
