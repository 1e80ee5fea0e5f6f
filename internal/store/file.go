package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sweeney/hotcirc/internal/logic"
)

// FileStore persists the matrix record to a single file, written atomically
// via tmp+rename so a power loss mid-write leaves the old record readable.
type FileStore struct {
	path string
}

// NewFileStore creates a store at the given path. The directory must exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and validates the record. Checksum rejection is the only
// corruption recovery: a bad record is reported, not repaired.
func (s *FileStore) Load() (logic.Matrix, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return logic.Matrix{}, fmt.Errorf("load matrix: %w", err)
	}
	m, err := logic.DecodeMatrix(data)
	if err != nil {
		return logic.Matrix{}, fmt.Errorf("load matrix %s: %w", s.path, err)
	}
	return m, nil
}

// Save writes the record atomically.
func (s *FileStore) Save(m logic.Matrix) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".hotcirc-matrix-*")
	if err != nil {
		return fmt.Errorf("save matrix: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(m.Encode()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save matrix: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save matrix: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save matrix: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save matrix: rename: %w", err)
	}
	return nil
}
