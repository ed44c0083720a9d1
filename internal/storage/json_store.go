package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habithouse/internal/constants"
	"github.com/julianstephens/habithouse/internal/models"
)

type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{
		path: path,
	}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return s.write(models.NewDocument())
}

func (s *JSONStore) Load() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewDocument(), nil
		}
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}
	return Decode(data, s.path), nil
}

func (s *JSONStore) Save(doc *models.Document) error {
	current, err := s.storedRevision()
	if err != nil {
		return err
	}
	if current != doc.Revision {
		return fmt.Errorf("%w: stored revision %d, loaded revision %d", ErrConflict, current, doc.Revision)
	}

	doc.Revision++
	if err := s.write(doc); err != nil {
		doc.Revision--
		return err
	}
	return nil
}

// storedRevision reads only the revision of the file on disk. A missing or
// unreadable file counts as revision 0. Decode applies the same rule, so the
// revision always matches what Load hands out.
func (s *JSONStore) storedRevision() (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read storage: %w", err)
	}
	return headerRevision(data), nil
}

// write replaces the file via a temp file in the same directory and a rename.
func (s *JSONStore) write(doc *models.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func (s *JSONStore) LockPath() string {
	return s.path + constants.LockfileSuffix
}
