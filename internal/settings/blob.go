package settings

import (
	"errors"
	"os"
	"path/filepath"
)

// Blob is the durable key-value medium behind the store: one serialized
// record per installation. The production implementation is a file; tests
// substitute in-memory blobs.
type Blob interface {
	// Load returns the persisted record, or os.ErrNotExist when no record
	// has been written yet.
	Load() ([]byte, error)

	// Save atomically replaces the persisted record.
	Save(data []byte) error
}

// FileBlob persists the record as a single JSON file.
type FileBlob struct {
	path string
}

// NewFileBlob creates a file-backed blob at path.
func NewFileBlob(path string) *FileBlob {
	return &FileBlob{path: path}
}

// Load reads the record from disk.
func (b *FileBlob) Load() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

// Save writes the record atomically via a temp file rename. Credentials
// live here, so the file is owner-readable only.
func (b *FileBlob) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return err
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, b.path)
}

// MemoryBlob is an in-memory Blob for tests and ephemeral sessions.
type MemoryBlob struct {
	data []byte
}

// Load returns the stored record or os.ErrNotExist.
func (b *MemoryBlob) Load() ([]byte, error) {
	if b.data == nil {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), b.data...), nil
}

// Save replaces the stored record.
func (b *MemoryBlob) Save(data []byte) error {
	b.data = append([]byte(nil), data...)
	return nil
}
