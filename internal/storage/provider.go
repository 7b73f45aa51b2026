// Package storage defines the folder abstraction used to read Markdown files
// for import and to write them on export.
package storage

import "github.com/starford/neuralnotes/internal/models"

// Provider is the interface for folder file operations.
type Provider interface {
	// Name returns the base name of the folder.
	Name() string
	// List returns metadata for every .md file under dir (relative to root).
	// Paths use forward slashes.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}
