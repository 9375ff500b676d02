package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/storage"
)

func TestSQLiteStorage_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "bookmarks.db")

	s, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer s.Close()

	folderID := "f1"
	now := time.Now().Truncate(time.Second) // RFC3339 loses sub-second precision

	store := model.NewStore()
	store.Folders = append(store.Folders, model.Folder{
		ID: folderID, Name: "Clicked Links", ParentID: stringPtr(model.BookmarksBarID),
	})
	store.Bookmarks = append(store.Bookmarks, model.Bookmark{
		ID:        "b1",
		Title:     "Test",
		URL:       "https://example.com",
		FolderID:  &folderID,
		CreatedAt: now,
	})

	if err := s.Save(store); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if len(loaded.Folders) != 3 {
		t.Fatalf("expected 3 folders, got %d", len(loaded.Folders))
	}
	if loaded.Folders[0].ID != model.BookmarksBarID {
		t.Errorf("expected roots first, got %q", loaded.Folders[0].ID)
	}
	if loaded.Folders[2].Name != "Clicked Links" {
		t.Errorf("expected folder name 'Clicked Links', got %q", loaded.Folders[2].Name)
	}
	if len(loaded.Bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(loaded.Bookmarks))
	}
	b := loaded.Bookmarks[0]
	if b.FolderID == nil || *b.FolderID != folderID {
		t.Error("expected bookmark folder_id to be preserved")
	}
	if !b.CreatedAt.Equal(now) {
		t.Errorf("expected createdAt %v, got %v", now, b.CreatedAt)
	}
}

func TestSQLiteStorage_EmptyDatabase(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := storage.NewSQLiteStorage(filepath.Join(tmpDir, "empty.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer s.Close()

	store, err := s.Load()
	if err != nil {
		t.Fatalf("failed to load empty db: %v", err)
	}
	if len(store.Folders) != 0 || len(store.Bookmarks) != 0 {
		t.Error("expected empty store")
	}
}

func TestSQLiteStorage_SaveReplacesContents(t *testing.T) {
	tmpDir := t.TempDir()

	s, err := storage.NewSQLiteStorage(filepath.Join(tmpDir, "replace.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer s.Close()

	first := model.NewStore()
	first.Bookmarks = append(first.Bookmarks, model.Bookmark{ID: "b1", Title: "Old", URL: "https://old.example.com"})
	if err := s.Save(first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := model.NewStore()
	second.Bookmarks = append(second.Bookmarks, model.Bookmark{ID: "b2", Title: "New", URL: "https://new.example.com"})
	if err := s.Save(second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(loaded.Bookmarks) != 1 || loaded.Bookmarks[0].ID != "b2" {
		t.Errorf("expected only b2 after replace, got %+v", loaded.Bookmarks)
	}
	if loaded.Bookmarks[0].FolderID != nil {
		t.Error("expected nil folder for root-level bookmark")
	}
}

func TestSQLiteStorage_ReopenKeepsData(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "reopen.db")

	s, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := s.Save(model.NewStore()); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	s.Close()

	reopened, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen: %v", err)
	}
	defer reopened.Close()

	loaded, err := reopened.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if len(loaded.Folders) != 2 {
		t.Errorf("expected 2 root folders after reopen, got %d", len(loaded.Folders))
	}
}
