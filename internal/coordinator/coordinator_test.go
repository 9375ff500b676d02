package coordinator_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/autobm/internal/bookmarks"
	"github.com/nikbrunner/autobm/internal/coordinator"
	"github.com/nikbrunner/autobm/internal/folder"
	"github.com/nikbrunner/autobm/internal/messaging"
	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/observer"
	"github.com/nikbrunner/autobm/internal/observer/htmldom"
	"github.com/nikbrunner/autobm/internal/settings"
	"github.com/nikbrunner/autobm/internal/storage"
)

type env struct {
	svc      *bookmarks.Service
	settings *settings.FileStore
	resolver *folder.Resolver
	coord    *coordinator.Coordinator
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	svc, err := bookmarks.Open(storage.NewJSONStorage(filepath.Join(dir, "bookmarks.json")), nil)
	assert.NilError(t, err)
	st := settings.NewFileStore(filepath.Join(dir, "settings.json"))
	resolver := folder.NewResolver(svc, st, nil)
	return env{
		svc:      svc,
		settings: st,
		resolver: resolver,
		coord:    coordinator.New(svc, resolver, st, nil),
	}
}

func (e env) captured(t *testing.T) []model.Node {
	t.Helper()
	ctx := context.Background()
	id, err := e.resolver.Resolve(ctx)
	assert.NilError(t, err)
	nodes, err := e.svc.Children(ctx, id)
	assert.NilError(t, err)
	return nodes
}

func TestOnLinkClicked_CreatesBookmarkInManagedFolder(t *testing.T) {
	e := newEnv(t)

	err := e.coord.OnLinkClicked(context.Background(), "https://example.com/a", "  Example Page ")
	assert.NilError(t, err)

	nodes := e.captured(t)
	assert.Assert(t, is.Len(nodes, 1))
	assert.Equal(t, nodes[0].Title, "Example Page")
	assert.Equal(t, nodes[0].URL, "https://example.com/a")
}

func TestOnLinkClicked_Disabled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	assert.NilError(t, settings.SetEnabled(ctx, e.settings, false))
	before := e.svc.Snapshot()

	for _, url := range []string{"https://example.com/a", "javascript:void(0)", ""} {
		assert.NilError(t, e.coord.OnLinkClicked(ctx, url, "x"))
	}

	// Not even the managed folder is created
	assert.DeepEqual(t, e.svc.Snapshot(), before)
}

func TestOnLinkClicked_IgnoresNonNetworkURLs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, url := range []string{"mailto:a@example.com", "ftp://example.com/f", "about:blank", "not a url"} {
		assert.NilError(t, e.coord.OnLinkClicked(ctx, url, "x"))
	}

	assert.Assert(t, is.Len(e.svc.Snapshot().Bookmarks, 0))
}

func TestOnLinkClicked_ExistingURLAnywhere(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, bookmarks.CreateParams{
		ParentID: model.OtherBookmarksID, Title: "Saved by hand", URL: "https://example.com/a",
	})
	assert.NilError(t, err)

	assert.NilError(t, e.coord.OnLinkClicked(ctx, "https://example.com/a", "Example"))
	assert.NilError(t, e.coord.OnLinkClicked(ctx, "https://example.com/b", "B"))
	assert.NilError(t, e.coord.OnLinkClicked(ctx, "https://example.com/b", "B again"))

	assert.Assert(t, is.Len(e.svc.Snapshot().Bookmarks, 2))
	nodes := e.captured(t)
	assert.Assert(t, is.Len(nodes, 1))
	assert.Equal(t, nodes[0].URL, "https://example.com/b")
}

func TestOnLinkClicked_PrefixIsNotAMatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, bookmarks.CreateParams{
		ParentID: model.OtherBookmarksID, Title: "Longer", URL: "https://example.com/a/b",
	})
	assert.NilError(t, err)

	assert.NilError(t, e.coord.OnLinkClicked(ctx, "https://example.com/a", "A"))
	assert.Assert(t, is.Len(e.captured(t), 1))
}

func TestOnLinkClicked_TitleTruncated(t *testing.T) {
	e := newEnv(t)

	long := strings.Repeat("é", 300)
	assert.NilError(t, e.coord.OnLinkClicked(context.Background(), "https://example.com/long", long))

	nodes := e.captured(t)
	assert.Assert(t, is.Len(nodes, 1))
	assert.Equal(t, len([]rune(nodes[0].Title)), 255)
}

func TestBookmarkTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "trimmed", title: "\t Go \n", want: "Go"},
		{name: "blank falls back to url", title: "   ", want: "https://go.dev"},
		{name: "empty falls back to url", title: "", want: "https://go.dev"},
		{name: "exactly max", title: strings.Repeat("a", 255), want: strings.Repeat("a", 255)},
		{name: "over max", title: strings.Repeat("a", 256), want: strings.Repeat("a", 255)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, coordinator.BookmarkTitle(tt.title, "https://go.dev"), tt.want)
		})
	}
}

func TestOnLinkClicked_HealsDeletedFolder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	assert.NilError(t, settings.SetFolderID(ctx, e.settings, "removed"))

	assert.NilError(t, e.coord.OnLinkClicked(ctx, "https://example.com/a", "A"))

	id, err := settings.FolderID(ctx, e.settings)
	assert.NilError(t, err)
	assert.Assert(t, id != "removed")
	nodes, err := e.svc.Children(ctx, id)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(nodes, 1))
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context) (string, error) {
	return "", errors.New("bookmark store unavailable")
}

func TestOnLinkClicked_ResolveFailure(t *testing.T) {
	e := newEnv(t)
	c := coordinator.New(e.svc, failingResolver{}, e.settings, nil)

	err := c.OnLinkClicked(context.Background(), "https://example.com/a", "A")
	assert.ErrorContains(t, err, "bookmark store unavailable")
	assert.Assert(t, is.Len(e.svc.Snapshot().Bookmarks, 0))
}

func TestInstall(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.NilError(t, e.coord.Install(ctx))

	enabled, ok, err := settings.LookupEnabled(ctx, e.settings)
	assert.NilError(t, err)
	assert.Assert(t, ok)
	assert.Assert(t, enabled)

	node, ok := e.resolver.Lookup(ctx)
	assert.Assert(t, ok)
	assert.Equal(t, node.Title, folder.Title)
}

func TestInstall_KeepsExplicitFlag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	assert.NilError(t, settings.SetEnabled(ctx, e.settings, false))

	assert.NilError(t, e.coord.Install(ctx))

	enabled, err := settings.Enabled(ctx, e.settings)
	assert.NilError(t, err)
	assert.Assert(t, !enabled)
}

func TestHandleMessage_IgnoresOtherTypes(t *testing.T) {
	e := newEnv(t)

	err := e.coord.HandleMessage(context.Background(), messaging.Message{Type: "ping", URL: "https://example.com"})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(e.svc.Snapshot().Bookmarks, 0))
}

func TestRun_ProcessesUntilClosed(t *testing.T) {
	e := newEnv(t)
	ch := make(chan messaging.Message, 3)
	ch <- messaging.LinkClicked("https://example.com/a", "A")
	ch <- messaging.LinkClicked("mailto:x@example.com", "ignored")
	ch <- messaging.LinkClicked("https://example.com/b", "B")
	close(ch)

	assert.NilError(t, e.coord.Run(context.Background(), ch))

	nodes := e.captured(t)
	assert.Assert(t, is.Len(nodes, 2))
	assert.Equal(t, nodes[0].Title, "A")
	assert.Equal(t, nodes[1].Title, "B")
}

func TestEndToEnd_ClickToBookmark(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	page := `<html><head><title>Links</title></head><body>
<p><a href="https://example.com/a"><span>Example&nbsp;&nbsp;Page</span></a></p>
</body></html>`
	doc, err := htmldom.Parse(strings.NewReader(page), "https://example.org/")
	assert.NilError(t, err)

	bus := messaging.NewBus(4)
	ch := bus.Subscribe()
	obs := observer.New(bus, doc)

	span := doc.Anchors()[0].FirstChild()
	assert.Assert(t, obs.OnDocumentClick(ctx, doc.ClickOn(span)))
	bus.Close()

	assert.NilError(t, e.coord.Run(ctx, ch))

	nodes := e.captured(t)
	assert.Assert(t, is.Len(nodes, 1))
	assert.Equal(t, nodes[0].Title, "Example Page")
	assert.Equal(t, nodes[0].URL, "https://example.com/a")

	id, err := settings.FolderID(ctx, e.settings)
	assert.NilError(t, err)
	folderNodes, err := e.svc.Get(ctx, id)
	assert.NilError(t, err)
	assert.Equal(t, folderNodes[0].Title, "Clicked Links")
}
