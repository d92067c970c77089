package model

import (
	"encoding/json"
	"time"

	"github.com/lexdraft/doc-template-service/internal/models"
	"github.com/lexdraft/doc-template-service/internal/template"
	"github.com/lexdraft/doc-template-service/pkg/jobqueue"
)

// Response is the common envelope. Code 0 means success.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code int, message string) *Response {
	return &Response{
		Code:    code,
		Message: message,
	}
}

// TemplateInfo is one template record as exposed over the API.
type TemplateInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	FieldCount int       `json:"field_count"`
	FileSize   int64     `json:"file_size"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewTemplateInfo converts a stored template record.
func NewTemplateInfo(tpl *models.Template) TemplateInfo {
	return TemplateInfo{
		ID:         tpl.ID,
		Name:       tpl.Name,
		Category:   tpl.Category,
		Status:     string(tpl.Status),
		FieldCount: tpl.FieldCount,
		FileSize:   tpl.FileSize,
		Error:      tpl.Error,
		CreatedAt:  tpl.CreatedAt,
		UpdatedAt:  tpl.UpdatedAt,
	}
}

// TemplateListResponse is the paginated template listing.
type TemplateListResponse struct {
	Total     int64          `json:"total"`
	Page      int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Templates []TemplateInfo `json:"templates"`
}

// TemplateFieldsResponse describes a template's fillable fields and default
// styling, the payload a form UI builds itself from.
type TemplateFieldsResponse struct {
	TemplateID string   `json:"template_id"`
	Fields     []string `json:"fields"`
	FontName   string   `json:"font_name"`
	FontSizePt float64  `json:"font_size_pt"`
}

// NewTemplateFieldsResponse converts parsed template metadata.
func NewTemplateFieldsResponse(meta *template.Metadata) TemplateFieldsResponse {
	fields := meta.FieldNames()
	if fields == nil {
		fields = []string{}
	}
	return TemplateFieldsResponse{
		TemplateID: meta.TemplateID,
		Fields:     fields,
		FontName:   meta.FontName,
		FontSizePt: meta.FontSizePt,
	}
}

// TemplateDeleteResponse confirms a deletion.
type TemplateDeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// GenerateResponse acknowledges a submitted generation job.
type GenerateResponse struct {
	JobID      string `json:"job_id"`
	TemplateID string `json:"template_id"`
	Status     string `json:"status"`
}

// JobStatusResponse is the poll payload for a generation job.
type JobStatusResponse struct {
	JobID       string     `json:"job_id"`
	TemplateID  string     `json:"template_id"`
	Status      string     `json:"status"`
	ResultPath  string     `json:"result_path,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJobStatusResponse converts a queue job snapshot.
func NewJobStatusResponse(job *jobqueue.GenerationJob) JobStatusResponse {
	return JobStatusResponse{
		JobID:       job.ID,
		TemplateID:  job.TemplateID,
		Status:      string(job.State),
		ResultPath:  job.ResultPath,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
	}
}

// GenerationInfo is one generation history entry.
type GenerationInfo struct {
	JobID       string            `json:"job_id"`
	TemplateID  string            `json:"template_id"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Values      map[string]string `json:"values,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NewGenerationInfo converts a stored generation record.
func NewGenerationInfo(rec *models.GenerationRecord) GenerationInfo {
	info := GenerationInfo{
		JobID:       rec.JobID,
		TemplateID:  rec.TemplateID,
		Status:      rec.Status,
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		CompletedAt: rec.CompletedAt,
	}
	if len(rec.Values) > 0 {
		var values map[string]string
		if err := json.Unmarshal(rec.Values, &values); err == nil {
			info.Values = values
		}
	}
	return info
}

// HistoryResponse lists a template's generation history.
type HistoryResponse struct {
	TemplateID  string           `json:"template_id"`
	Generations []GenerationInfo `json:"generations"`
}
