package model

import (
	"mime/multipart"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// fieldNamePattern is the shape of a normalized placeholder name. Value maps
// are keyed by these names, so mixed-case or decorated keys would silently
// never match and are rejected up front.
var fieldNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("field_name", func(fl validator.FieldLevel) bool {
			return fieldNamePattern.MatchString(fl.Field().String())
		})
	}
}

// PaginationRequest carries common pagination query parameters.
type PaginationRequest struct {
	Page     int `form:"page" json:"page" binding:"omitempty,min=1"`           // page number, starting at 1
	PageSize int `form:"page_size" json:"page_size" binding:"omitempty,min=1"` // records per page
}

// GetPage returns the page number, defaulting to 1.
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize returns the page size, defaulting to 10 and capped at 100.
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 10
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// TemplateUploadRequest is the multipart payload for a template upload.
type TemplateUploadRequest struct {
	File     *multipart.FileHeader `form:"file" binding:"required"`     // template source document
	Name     string                `form:"name" binding:"required"`     // display name
	Category string                `form:"category" binding:"omitempty"` // formatter category, free-form
}

// TemplateIDRequest addresses one template by path id.
type TemplateIDRequest struct {
	ID string `uri:"id" binding:"required"` // template ID
}

// TemplateListRequest is the template listing query.
type TemplateListRequest struct {
	PaginationRequest
}

// TemplateUpdateRequest is the multipart payload for replacing a template's
// source document.
type TemplateUpdateRequest struct {
	File *multipart.FileHeader `form:"file" binding:"required"` // replacement source document
}

// GenerateRequest submits a generation job.
type GenerateRequest struct {
	TemplateID string            `json:"template_id" binding:"required"`                         // template to fill
	Values     map[string]string `json:"values" binding:"omitempty,dive,keys,field_name,endkeys"` // placeholder name -> value
}

// JobIDRequest addresses one generation job by path id.
type JobIDRequest struct {
	JobID string `uri:"job_id" binding:"required"` // generation job ID
}

// HistoryRequest is the generation history query for a template.
type HistoryRequest struct {
	Limit int `form:"limit" json:"limit" binding:"omitempty,min=1"` // max records, 0 for all
}
