// Package storage defines the local file-system abstraction for the
// collection and the vault.
package storage

import "github.com/starford/pocketnotes/internal/models"

// Provider is the interface for rooted file operations.
type Provider interface {
	// List returns the regular files directly inside dir (relative to root), sorted by path.
	List(dir string) ([]models.FileRef, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path (relative to root).
	Exists(path string) (bool, error)
}

var _ Provider = (*FS)(nil)
