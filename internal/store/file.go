package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ankittk/hardcheck/pkg/models"
)

// FileStore keeps the snapshot in a single JSON file, rewritten through a temp file and rename.
type FileStore struct {
	Path string
}

// NewFileStore returns a file store at path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// DefaultFilePath is home/protected/user-deadlines.json.
func DefaultFilePath(home string) string {
	return filepath.Join(home, "protected", "user-deadlines.json")
}

func (s *FileStore) Load(ctx context.Context) (models.Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Snapshot{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return models.Snapshot{}, nil
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	if snap == nil {
		snap = models.Snapshot{}
	}
	return snap, nil
}

func (s *FileStore) Save(ctx context.Context, snap models.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".deadlines-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.Path)
}

func (s *FileStore) Close() error { return nil }
