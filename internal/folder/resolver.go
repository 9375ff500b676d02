// Package folder finds, and when needed creates, the managed folder that
// captured bookmarks are saved into.
package folder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nikbrunner/autobm/internal/bookmarks"
	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/settings"
)

// Title is the name of the managed folder.
const Title = "Clicked Links"

// BookmarkAPI is the slice of the host bookmark API the resolver uses.
type BookmarkAPI interface {
	Get(ctx context.Context, id string) ([]model.Node, error)
	Search(ctx context.Context, query string) ([]model.Node, error)
	Create(ctx context.Context, params bookmarks.CreateParams) (model.Node, error)
}

// Resolver resolves the managed folder id, healing a stale cached id.
type Resolver struct {
	bookmarks BookmarkAPI
	settings  settings.Store
	logger    *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(api BookmarkAPI, store settings.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{bookmarks: api, settings: store, logger: logger}
}

// Resolve returns the id of the managed folder. The cached id is used when it
// still names a folder; otherwise a folder titled Title is looked up, and
// failing that created under the Bookmarks Bar (or Other Bookmarks). The
// result is cached in settings.
//
// Lookup failures count as "not found". Only a failed create is an error.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	cached, err := settings.FolderID(ctx, r.settings)
	if err != nil {
		r.logger.Warn("read cached folder id", slog.String("error", err.Error()))
		cached = ""
	}

	if r.isFolder(ctx, cached) {
		return cached, nil
	}

	if id, ok := r.findByTitle(ctx); ok {
		r.logger.Info("managed folder found", slog.String("folder_id", id))
		r.cache(ctx, id)
		return id, nil
	}

	parentID := model.BookmarksBarID
	if !r.isFolder(ctx, parentID) {
		parentID = model.OtherBookmarksID
	}

	created, err := r.bookmarks.Create(ctx, bookmarks.CreateParams{ParentID: parentID, Title: Title})
	if err != nil {
		return "", fmt.Errorf("create managed folder: %w", err)
	}

	r.logger.Info("managed folder created",
		slog.String("folder_id", created.ID),
		slog.String("parent_id", parentID))
	r.cache(ctx, created.ID)
	return created.ID, nil
}

// Lookup returns the cached folder node without creating anything.
// ok is false when nothing valid is cached.
func (r *Resolver) Lookup(ctx context.Context) (model.Node, bool) {
	id, err := settings.FolderID(ctx, r.settings)
	if err != nil {
		return model.Node{}, false
	}
	return r.folderNode(ctx, id)
}

func (r *Resolver) isFolder(ctx context.Context, id string) bool {
	_, ok := r.folderNode(ctx, id)
	return ok
}

// folderNode fetches id and accepts it only as exactly one folder node.
func (r *Resolver) folderNode(ctx context.Context, id string) (model.Node, bool) {
	if id == "" {
		return model.Node{}, false
	}
	nodes, err := r.bookmarks.Get(ctx, id)
	if err != nil || len(nodes) != 1 || !nodes[0].IsFolder() {
		return model.Node{}, false
	}
	return nodes[0], true
}

func (r *Resolver) findByTitle(ctx context.Context) (string, bool) {
	nodes, err := r.bookmarks.Search(ctx, Title)
	if err != nil {
		r.logger.Debug("search managed folder", slog.String("error", err.Error()))
		return "", false
	}
	for _, n := range nodes {
		if n.IsFolder() && n.Title == Title {
			return n.ID, true
		}
	}
	return "", false
}

// cache stores id. A failed write only costs a lookup next time.
func (r *Resolver) cache(ctx context.Context, id string) {
	if err := settings.SetFolderID(ctx, r.settings, id); err != nil {
		r.logger.Warn("cache folder id",
			slog.String("folder_id", id),
			slog.String("error", err.Error()))
	}
}
