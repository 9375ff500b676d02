// Package settings persists the small key-value areas shared by the
// coordinator, the popup and the indicator.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nikbrunner/autobm/internal/storage"
)

// Area names a settings partition.
type Area string

const (
	// Sync holds settings that follow the user across devices.
	Sync Area = "sync"
	// Local holds settings that belong to this machine only.
	Local Area = "local"
)

// Known keys.
const (
	KeyEnabled          = "enabled"
	KeyBookmarkFolderID = "bookmarkFolderId"
	KeySidebarCollapsed = "sidebarCollapsed"
)

// DefaultEnabled is the value of the enabled flag before anyone sets it.
const DefaultEnabled = true

// Store reads and writes keys in an area. Get reports whether the key is
// present and decodes its value into dst when it is.
type Store interface {
	Get(ctx context.Context, area Area, key string, dst any) (bool, error)
	Set(ctx context.Context, area Area, key string, value any) error
}

// FileStore implements Store on top of a single JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type document map[Area]map[string]json.RawMessage

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store. The file is read on every call so changes made by
// other processes are seen immediately.
func (s *FileStore) Get(ctx context.Context, area Area, key string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, err
	}

	raw, ok := doc[area][key]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s.%s: %w", area, key, err)
	}
	return true, nil
}

// Set implements Store. A nil value removes the key.
func (s *FileStore) Set(ctx context.Context, area Area, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	if value == nil {
		delete(doc[area], key)
	} else {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s.%s: %w", area, key, err)
		}
		if doc[area] == nil {
			doc[area] = make(map[string]json.RawMessage)
		}
		doc[area][key] = raw
	}

	return s.write(doc)
}

func (s *FileStore) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, nil
		}
		return nil, err
	}

	doc := document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) write(doc document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(s.path, data)
}

// Enabled returns the enabled flag, or DefaultEnabled when it was never set.
func Enabled(ctx context.Context, s Store) (bool, error) {
	enabled, ok, err := LookupEnabled(ctx, s)
	if err != nil {
		return false, err
	}
	if !ok {
		return DefaultEnabled, nil
	}
	return enabled, nil
}

// LookupEnabled returns the enabled flag and whether it has been set.
func LookupEnabled(ctx context.Context, s Store) (enabled, ok bool, err error) {
	ok, err = s.Get(ctx, Sync, KeyEnabled, &enabled)
	return enabled, ok, err
}

// SetEnabled stores the enabled flag.
func SetEnabled(ctx context.Context, s Store, enabled bool) error {
	return s.Set(ctx, Sync, KeyEnabled, enabled)
}

// FolderID returns the cached managed folder id, or "" when none is cached.
func FolderID(ctx context.Context, s Store) (string, error) {
	var id string
	if _, err := s.Get(ctx, Sync, KeyBookmarkFolderID, &id); err != nil {
		return "", err
	}
	return id, nil
}

// SetFolderID caches the managed folder id.
func SetFolderID(ctx context.Context, s Store, id string) error {
	return s.Set(ctx, Sync, KeyBookmarkFolderID, id)
}

// SidebarCollapsed reports whether the user hid the indicator.
func SidebarCollapsed(ctx context.Context, s Store) (bool, error) {
	var collapsed bool
	if _, err := s.Get(ctx, Local, KeySidebarCollapsed, &collapsed); err != nil {
		return false, err
	}
	return collapsed, nil
}

// SetSidebarCollapsed stores whether the indicator is hidden.
func SetSidebarCollapsed(ctx context.Context, s Store, collapsed bool) error {
	return s.Set(ctx, Local, KeySidebarCollapsed, collapsed)
}

// ApplyEnabled stores the enabled flag the way the settings UI does:
// turning capture on also shows the indicator again.
func ApplyEnabled(ctx context.Context, s Store, enabled bool) error {
	if err := SetEnabled(ctx, s, enabled); err != nil {
		return err
	}
	if enabled {
		return SetSidebarCollapsed(ctx, s, false)
	}
	return nil
}

// IndicatorVisible reports whether the on-page indicator is shown: capture
// is enabled and the user has not hidden it.
func IndicatorVisible(ctx context.Context, s Store) (bool, error) {
	enabled, err := Enabled(ctx, s)
	if err != nil || !enabled {
		return false, err
	}
	collapsed, err := SidebarCollapsed(ctx, s)
	if err != nil {
		return false, err
	}
	return !collapsed, nil
}
