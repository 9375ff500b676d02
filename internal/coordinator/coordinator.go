// Package coordinator turns link-clicked messages into bookmarks in the
// managed folder.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nikbrunner/autobm/internal/bookmarks"
	"github.com/nikbrunner/autobm/internal/messaging"
	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/settings"
)

// MaxTitleLength is the longest title stored, in characters.
const MaxTitleLength = 255

// BookmarkAPI is the slice of the host bookmark API the coordinator uses.
type BookmarkAPI interface {
	Search(ctx context.Context, query string) ([]model.Node, error)
	Create(ctx context.Context, params bookmarks.CreateParams) (model.Node, error)
}

// FolderResolver yields the id of the folder new bookmarks go into.
type FolderResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Coordinator gates and performs bookmark creation.
type Coordinator struct {
	bookmarks BookmarkAPI
	folders   FolderResolver
	settings  settings.Store
	logger    *slog.Logger
}

// New creates a Coordinator.
func New(api BookmarkAPI, folders FolderResolver, store settings.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		bookmarks: api,
		folders:   folders,
		settings:  store,
		logger:    logger,
	}
}

// Install runs once on activation: the managed folder is created eagerly
// and the enabled flag is initialized when it was never set.
func (c *Coordinator) Install(ctx context.Context) error {
	if _, err := c.folders.Resolve(ctx); err != nil {
		return err
	}

	_, ok, err := settings.LookupEnabled(ctx, c.settings)
	if err != nil {
		return fmt.Errorf("read enabled flag: %w", err)
	}
	if !ok {
		if err := settings.SetEnabled(ctx, c.settings, settings.DefaultEnabled); err != nil {
			return fmt.Errorf("initialize enabled flag: %w", err)
		}
		c.logger.Info("enabled flag initialized", slog.Bool("enabled", settings.DefaultEnabled))
	}
	return nil
}

// Run handles messages one at a time until ch closes or ctx is done.
func (c *Coordinator) Run(ctx context.Context, ch <-chan messaging.Message) error {
	c.logger.Info("coordinator: started")
	defer c.logger.Info("coordinator: stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := c.HandleMessage(ctx, msg); err != nil {
				c.logger.Warn("link not bookmarked",
					slog.String("url", msg.URL),
					slog.String("error", err.Error()))
			}
		}
	}
}

// HandleMessage dispatches one inbound message. Types other than
// link-clicked are ignored.
func (c *Coordinator) HandleMessage(ctx context.Context, msg messaging.Message) error {
	if msg.Type != messaging.TypeLinkClicked {
		return nil
	}
	return c.OnLinkClicked(ctx, msg.URL, msg.Title)
}

// OnLinkClicked bookmarks url into the managed folder unless capture is
// disabled, url is not a network address, or url is already bookmarked
// anywhere in the store.
func (c *Coordinator) OnLinkClicked(ctx context.Context, url, title string) error {
	enabled, err := settings.Enabled(ctx, c.settings)
	if err != nil {
		return fmt.Errorf("read enabled flag: %w", err)
	}
	if !enabled {
		return nil
	}

	if !messaging.IsNetworkURL(url) {
		c.logger.Debug("ignoring non-network url", slog.String("url", url))
		return nil
	}

	if c.exists(ctx, url) {
		c.logger.Debug("already bookmarked", slog.String("url", url))
		return nil
	}

	folderID, err := c.folders.Resolve(ctx)
	if err != nil {
		return err
	}

	created, err := c.bookmarks.Create(ctx, bookmarks.CreateParams{
		ParentID: folderID,
		Title:    BookmarkTitle(title, url),
		URL:      url,
	})
	if err != nil {
		return fmt.Errorf("create bookmark: %w", err)
	}

	c.logger.Info("bookmark created",
		slog.String("id", created.ID),
		slog.String("url", url),
		slog.String("folder_id", folderID))
	return nil
}

// exists reports whether a bookmark with exactly url is stored. A failed
// search counts as absent.
func (c *Coordinator) exists(ctx context.Context, url string) bool {
	nodes, err := c.bookmarks.Search(ctx, url)
	if err != nil {
		c.logger.Warn("search existing bookmarks", slog.String("error", err.Error()))
		return false
	}
	for _, n := range nodes {
		if n.URL == url {
			return true
		}
	}
	return false
}

// BookmarkTitle is the trimmed title cut to MaxTitleLength characters, or
// url when the title is blank.
func BookmarkTitle(title, url string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return url
	}
	runes := []rune(title)
	if len(runes) > MaxTitleLength {
		return string(runes[:MaxTitleLength])
	}
	return title
}
