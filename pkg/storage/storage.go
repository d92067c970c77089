package storage

import (
	"io"
	"path/filepath"
	"strings"
)

// FileInfo describes a stored file.
type FileInfo struct {
	ID       string // unique file identifier
	Name     string // original filename
	Size     int64  // size in bytes
	MimeType string // detected MIME type
	Path     string // storage-internal path
}

// Storage persists template sources and generated artifacts. Implementations
// exist for the local filesystem and MinIO; the engine itself never touches
// storage, only the services around it do.
type Storage interface {
	// Save stores the reader's content under a fresh id.
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get opens a stored file by id.
	Get(id string) (io.ReadCloser, error)

	// Delete removes a stored file.
	Delete(id string) error

	// List enumerates stored files.
	List() ([]FileInfo, error)

	// Exists reports whether a file id is present.
	Exists(id string) (bool, error)
}

// getMimeType maps a filename to the MIME types this service handles.
func getMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
