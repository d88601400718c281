// Package storage persists drafts, transcripts and the master CSV log on
// the local file system.
package storage

import "github.com/marlowe/inkwell/internal/models"

// Provider is the interface for data-directory file operations.
type Provider interface {
	// List returns metadata for every .txt file under dir (relative to the data root).
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path (relative to the data root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the data root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the data root).
	Delete(path string) error
}
