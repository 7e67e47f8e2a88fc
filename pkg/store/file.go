package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps each run as <dir>/<id>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory runs are stored in.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Save(_ context.Context, run *Run) error {
	if err := ValidateID(run.ID); err != nil {
		return err
	}
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	// Write then rename so a crashed save never leaves a torn file.
	tmp := s.path(run.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(run.ID))
}

func (s *FileStore) Get(_ context.Context, id string) (*Run, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return s.read(s.path(id), id)
}

func (s *FileStore) List(_ context.Context, limit int) ([]*Run, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var runs []*Run
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		run, err := s.read(filepath.Join(s.dir, name), id)
		if err != nil {
			continue // Skip unreadable runs
		}
		runs = append(runs, run)
	}
	return newestFirst(runs, limit), nil
}

func (s *FileStore) Close(context.Context) error { return nil }

func (s *FileStore) read(path, id string) (*Run, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

var _ Store = (*FileStore)(nil)
