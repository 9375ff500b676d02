package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikbrunner/autobm/internal/model"
)

// Backend names accepted by OpenStorage.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Storage defines the interface for persisting bookmarks.
type Storage interface {
	Load() (*model.Store, error)
	Save(store *model.Store) error
	Path() string
}

// JSONStorage implements Storage using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the store from the JSON file.
// Returns an empty store if the file doesn't exist.
func (s *JSONStorage) Load() (*model.Store, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.Store{
				Folders:   []model.Folder{},
				Bookmarks: []model.Bookmark{},
			}, nil
		}
		return nil, err
	}

	var store model.Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	// Ensure slices are not nil
	if store.Folders == nil {
		store.Folders = []model.Folder{}
	}
	if store.Bookmarks == nil {
		store.Bookmarks = []model.Bookmark{}
	}

	return &store, nil
}

// Save writes the store to the JSON file.
// The file is replaced atomically so concurrent readers never see a partial write.
func (s *JSONStorage) Save(store *model.Store) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}

	return WriteFileAtomic(s.path, data)
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DefaultDir returns the default data directory: ~/.config/autobm
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "autobm"), nil
}

// DefaultPath returns the default store path for a backend.
func DefaultPath(backend string) (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	if backend == BackendSQLite {
		return filepath.Join(dir, "bookmarks.db"), nil
	}
	return filepath.Join(dir, "bookmarks.json"), nil
}

// OpenStorage opens the storage backend named by backend at path.
// An empty path selects the backend's default location.
func OpenStorage(backend, path string) (Storage, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(backend); err != nil {
			return nil, err
		}
	}

	switch backend {
	case BackendSQLite:
		return NewSQLiteStorage(path)
	case BackendJSON, "":
		return NewJSONStorage(path), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
