package models

import "errors"

var (
	// ErrTemplateNotFound is returned when a template record does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrGenerationNotFound is returned when a generation record does not exist.
	ErrGenerationNotFound = errors.New("generation record not found")
)
