package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateStatus tracks whether a template has been parsed successfully.
type TemplateStatus string

const (
	// TemplateStatusUploaded means the source file is stored but not parsed yet.
	TemplateStatusUploaded TemplateStatus = "uploaded"
	// TemplateStatusReady means placeholders and font profile were extracted.
	TemplateStatusReady TemplateStatus = "ready"
	// TemplateStatusInvalid means no run model could be built from the source.
	TemplateStatusInvalid TemplateStatus = "invalid"
)

// Template is the stored record for one reusable document template.
type Template struct {
	ID         string         `gorm:"primaryKey"`        // template ID
	Name       string         `gorm:"not null"`          // display name
	Category   string         `gorm:"size:50;index"`     // formatter category: letter, affidavit, ...
	FileID     string         `gorm:"not null"`          // source file id in storage
	FilePath   string         `gorm:""`                  // storage-internal path, informational
	FileSize   int64          `gorm:"not null"`          // source file size in bytes
	Status     TemplateStatus `gorm:"not null;index"`    // parse status
	FieldCount int            `gorm:"not null;default:0"`
	Error      string         `gorm:"type:text"`         // parse error, if any
	Metadata   datatypes.JSON `gorm:"type:json"`         // extracted placeholder metadata
	CreatedAt  time.Time      `gorm:"not null;index"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

// BeforeCreate sets timestamps on insert.
func (t *Template) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the update timestamp.
func (t *Template) BeforeUpdate(tx *gorm.DB) (err error) {
	t.UpdatedAt = time.Now()
	return nil
}

// TableName pins the table name.
func (Template) TableName() string {
	return "templates"
}

// GenerationRecord is the stored outcome of one generation job.
type GenerationRecord struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	JobID       string         `gorm:"not null;uniqueIndex"` // job queue identifier
	TemplateID  string         `gorm:"not null;index"`       // source template
	Status      string         `gorm:"not null;size:20"`     // terminal job state
	OutputPath  string         `gorm:""`                     // generated artifact path in storage
	Error       string         `gorm:"type:text"`            // failure payload, if any
	Values      datatypes.JSON `gorm:"type:json"`            // submitted value map
	CreatedAt   time.Time      `gorm:"not null;index"`
	CompletedAt *time.Time     `gorm:"index"`
}

// BeforeCreate sets the creation timestamp on insert.
func (g *GenerationRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	return nil
}

// TableName pins the table name.
func (GenerationRecord) TableName() string {
	return "generation_records"
}
