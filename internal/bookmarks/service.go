// Package bookmarks exposes the bookmark tree through the small host API the
// capture pipeline consumes: get by id, search, and create.
package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/storage"
)

var (
	ErrNotFound  = errors.New("bookmark node not found")
	ErrNotFolder = errors.New("bookmark node is not a folder")
)

// CreateParams describes a node to create. An empty URL creates a folder.
type CreateParams struct {
	ParentID string
	Title    string
	URL      string
}

// Service serves bookmark API calls from an in-memory tree and writes every
// mutation through to storage.
type Service struct {
	mu      sync.Mutex
	storage storage.Storage
	store   *model.Store
	logger  *slog.Logger
}

// Open loads the tree from st and makes sure the root folders exist.
func Open(st storage.Storage, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{storage: st, logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads storage and swaps in the result. The lock is held throughout so a
// Create running meanwhile is either in the file read or waits for the swap.
func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.storage.Load()
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	if store.EnsureRoots() {
		if err := s.storage.Save(store); err != nil {
			return fmt.Errorf("save root folders: %w", err)
		}
	}

	s.store = store
	return nil
}

// Reload replaces the in-memory tree with the current storage contents.
func (s *Service) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.load()
}

// Get returns the node with the given id.
func (s *Service) Get(ctx context.Context, id string) ([]model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.store.GetNode(id)
	if !ok {
		return nil, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return []model.Node{node}, nil
}

// Search returns nodes whose title or URL matches query.
func (s *Service) Search(ctx context.Context, query string) ([]model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Search(query), nil
}

// Children returns the folders and bookmarks directly inside folderID.
func (s *Service) Children(ctx context.Context, folderID string) ([]model.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.GetFolderByID(folderID) == nil {
		return nil, fmt.Errorf("children of %q: %w", folderID, ErrNotFound)
	}

	var nodes []model.Node
	for _, f := range s.store.GetFoldersInFolder(&folderID) {
		nodes = append(nodes, model.FolderNode(f))
	}
	for _, b := range s.store.GetBookmarksInFolder(&folderID) {
		nodes = append(nodes, model.BookmarkNode(b))
	}
	return nodes, nil
}

// Create adds a folder or bookmark under params.ParentID and persists the tree.
func (s *Service) Create(ctx context.Context, params CreateParams) (model.Node, error) {
	if err := ctx.Err(); err != nil {
		return model.Node{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.store.GetNode(params.ParentID)
	if !ok {
		return model.Node{}, fmt.Errorf("create in %q: %w", params.ParentID, ErrNotFound)
	}
	if !parent.IsFolder() {
		return model.Node{}, fmt.Errorf("create in %q: %w", params.ParentID, ErrNotFolder)
	}

	parentID := params.ParentID
	folders, bookmarks := s.store.Folders, s.store.Bookmarks

	var node model.Node
	if params.URL == "" {
		f := model.NewFolder(model.NewFolderParams{Name: params.Title, ParentID: &parentID})
		s.store.Folders = append(s.store.Folders, f)
		node = model.FolderNode(f)
	} else {
		b := model.NewBookmark(model.NewBookmarkParams{Title: params.Title, URL: params.URL, FolderID: &parentID})
		s.store.Bookmarks = append(s.store.Bookmarks, b)
		node = model.BookmarkNode(b)
	}

	if err := s.storage.Save(s.store); err != nil {
		s.store.Folders, s.store.Bookmarks = folders, bookmarks
		return model.Node{}, fmt.Errorf("save bookmarks: %w", err)
	}

	s.logger.Debug("bookmark node created",
		slog.String("id", node.ID),
		slog.String("parent_id", node.ParentID),
		slog.Bool("folder", node.IsFolder()))
	return node, nil
}

// Import merges folders and bookmarks into the folder into, skipping URLs
// that are already bookmarked.
func (s *Service) Import(ctx context.Context, into string, folders []model.Folder, bookmarks []model.Bookmark) (added, skipped int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.GetFolderByID(into) == nil {
		return 0, 0, fmt.Errorf("import into %q: %w", into, ErrNotFound)
	}

	prevFolders, prevBookmarks := s.store.Folders, s.store.Bookmarks
	added, skipped = s.store.ImportMerge(&into, folders, bookmarks)

	if err := s.storage.Save(s.store); err != nil {
		s.store.Folders, s.store.Bookmarks = prevFolders, prevBookmarks
		return 0, 0, fmt.Errorf("save bookmarks: %w", err)
	}
	return added, skipped, nil
}

// Snapshot returns a copy of the tree that is safe to read without locking.
func (s *Service) Snapshot() *model.Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &model.Store{
		Folders:   append([]model.Folder(nil), s.store.Folders...),
		Bookmarks: append([]model.Bookmark(nil), s.store.Bookmarks...),
	}
}

// Path returns the storage location.
func (s *Service) Path() string {
	return s.storage.Path()
}

// Close releases the underlying storage if it holds resources.
func (s *Service) Close() error {
	if c, ok := s.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
