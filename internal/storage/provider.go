// Package storage keeps binary assets such as cover images on disk.
package storage

import "github.com/starford/pensieri/internal/models"

// Provider is the interface for blob operations. Names are relative to the
// asset root.
type Provider interface {
	// List returns metadata for every blob under dir.
	List(dir string) ([]models.BlobMeta, error)
	// Read returns the raw bytes of the blob called name.
	Read(name string) ([]byte, error)
	// Write atomically writes content under name.
	Write(name string, content []byte) error
	// Delete removes the blob called name.
	Delete(name string) error
}
