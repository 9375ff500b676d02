package bookmarks_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/poll"

	"github.com/nikbrunner/autobm/internal/bookmarks"
	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/storage"
)

func openService(t *testing.T) (*bookmarks.Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	svc, err := bookmarks.Open(storage.NewJSONStorage(path), nil)
	assert.NilError(t, err)
	return svc, path
}

func TestOpen_CreatesRoots(t *testing.T) {
	svc, path := openService(t)
	ctx := context.Background()

	nodes, err := svc.Get(ctx, model.BookmarksBarID)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(nodes, 1))
	assert.Assert(t, nodes[0].IsFolder())

	// Roots are persisted immediately
	loaded, err := storage.NewJSONStorage(path).Load()
	assert.NilError(t, err)
	assert.Assert(t, is.Len(loaded.Folders, 2))
}

func TestGet_Unknown(t *testing.T) {
	svc, _ := openService(t)

	_, err := svc.Get(context.Background(), "does-not-exist")
	assert.Assert(t, errors.Is(err, bookmarks.ErrNotFound))
}

func TestCreate_FolderAndBookmark(t *testing.T) {
	svc, path := openService(t)
	ctx := context.Background()

	folder, err := svc.Create(ctx, bookmarks.CreateParams{ParentID: model.BookmarksBarID, Title: "Clicked Links"})
	assert.NilError(t, err)
	assert.Assert(t, folder.IsFolder())
	assert.Equal(t, folder.ParentID, model.BookmarksBarID)

	bm, err := svc.Create(ctx, bookmarks.CreateParams{ParentID: folder.ID, Title: "Example", URL: "https://example.com/a"})
	assert.NilError(t, err)
	assert.Equal(t, bm.ParentID, folder.ID)
	assert.Equal(t, bm.URL, "https://example.com/a")

	children, err := svc.Children(ctx, folder.ID)
	assert.NilError(t, err)
	assert.DeepEqual(t, children, []model.Node{bm})

	// Written through to storage
	loaded, err := storage.NewJSONStorage(path).Load()
	assert.NilError(t, err)
	assert.Assert(t, loaded.HasBookmarkURL("https://example.com/a"))
}

func TestCreate_InvalidParent(t *testing.T) {
	svc, _ := openService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookmarks.CreateParams{ParentID: "missing", Title: "x"})
	assert.Assert(t, errors.Is(err, bookmarks.ErrNotFound))

	bm, err := svc.Create(ctx, bookmarks.CreateParams{ParentID: model.OtherBookmarksID, Title: "a", URL: "https://a.example.com"})
	assert.NilError(t, err)

	_, err = svc.Create(ctx, bookmarks.CreateParams{ParentID: bm.ID, Title: "child", URL: "https://b.example.com"})
	assert.Assert(t, errors.Is(err, bookmarks.ErrNotFolder))
}

func TestSearch(t *testing.T) {
	svc, _ := openService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookmarks.CreateParams{ParentID: model.OtherBookmarksID, Title: "Go", URL: "https://go.dev/doc"})
	assert.NilError(t, err)

	nodes, err := svc.Search(ctx, "https://go.dev/doc")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(nodes, 1))
	assert.Equal(t, nodes[0].Title, "Go")
}

func TestCancelledContext(t *testing.T) {
	svc, _ := openService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Get(ctx, model.BookmarksBarID)
	assert.Assert(t, errors.Is(err, context.Canceled))
}

type failingStorage struct {
	storage.Storage
	failSave bool
}

func (f *failingStorage) Save(store *model.Store) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.Storage.Save(store)
}

func TestCreate_SaveFailureLeavesTreeUnchanged(t *testing.T) {
	st := &failingStorage{Storage: storage.NewJSONStorage(filepath.Join(t.TempDir(), "b.json"))}
	svc, err := bookmarks.Open(st, nil)
	assert.NilError(t, err)

	st.failSave = true
	_, err = svc.Create(context.Background(), bookmarks.CreateParams{ParentID: model.BookmarksBarID, Title: "x", URL: "https://x.example.com"})
	assert.ErrorContains(t, err, "disk full")

	snap := svc.Snapshot()
	assert.Assert(t, is.Len(snap.Bookmarks, 0))
}

// pausingStorage holds the next Load after it has read the file until
// release is closed.
type pausingStorage struct {
	storage.Storage
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingStorage) Load() (*model.Store, error) {
	store, err := p.Storage.Load()
	if p.loaded != nil {
		loaded := p.loaded
		p.loaded = nil
		close(loaded)
		<-p.release
	}
	return store, err
}

func TestReload_DoesNotDropConcurrentCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	st := &pausingStorage{Storage: storage.NewJSONStorage(path)}
	svc, err := bookmarks.Open(st, nil)
	assert.NilError(t, err)
	ctx := context.Background()

	st.loaded = make(chan struct{})
	st.release = make(chan struct{})
	loaded := st.loaded

	reloadDone := make(chan error, 1)
	go func() { reloadDone <- svc.Reload(ctx) }()
	<-loaded

	type result struct {
		node model.Node
		err  error
	}
	createDone := make(chan result, 1)
	go func() {
		node, err := svc.Create(ctx, bookmarks.CreateParams{
			ParentID: model.OtherBookmarksID, Title: "x", URL: "https://x.example.com",
		})
		createDone <- result{node, err}
	}()

	// Give Create the chance to race the reload
	time.Sleep(50 * time.Millisecond)
	close(st.release)

	assert.NilError(t, <-reloadDone)
	x := <-createDone
	assert.NilError(t, x.err)

	_, err = svc.Create(ctx, bookmarks.CreateParams{
		ParentID: model.OtherBookmarksID, Title: "y", URL: "https://y.example.com",
	})
	assert.NilError(t, err)

	_, err = svc.Get(ctx, x.node.ID)
	assert.NilError(t, err)

	onDisk, err := storage.NewJSONStorage(path).Load()
	assert.NilError(t, err)
	assert.Assert(t, onDisk.HasBookmarkURL("https://x.example.com"))
	assert.Assert(t, onDisk.HasBookmarkURL("https://y.example.com"))
}

func TestImport(t *testing.T) {
	svc, _ := openService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, bookmarks.CreateParams{ParentID: model.OtherBookmarksID, Title: "Existing", URL: "https://example.com"})
	assert.NilError(t, err)

	added, skipped, err := svc.Import(ctx, model.OtherBookmarksID, nil, []model.Bookmark{
		{ID: "i1", Title: "Dup", URL: "https://example.com"},
		{ID: "i2", Title: "New", URL: "https://new.example.com"},
	})
	assert.NilError(t, err)
	assert.Equal(t, added, 1)
	assert.Equal(t, skipped, 1)

	_, _, err = svc.Import(ctx, "missing", nil, nil)
	assert.Assert(t, errors.Is(err, bookmarks.ErrNotFound))
}

func TestWatch_ReloadsExternalChanges(t *testing.T) {
	svc, path := openService(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx) }()

	// Give the watcher a moment to register the directory
	time.Sleep(100 * time.Millisecond)

	other, err := bookmarks.Open(storage.NewJSONStorage(path), nil)
	assert.NilError(t, err)
	created, err := other.Create(context.Background(), bookmarks.CreateParams{
		ParentID: model.OtherBookmarksID, Title: "From elsewhere", URL: "https://elsewhere.example.com",
	})
	assert.NilError(t, err)

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if _, err := svc.Get(context.Background(), created.ID); err != nil {
			return poll.Continue("bookmark %s not visible yet", created.ID)
		}
		return poll.Success()
	}, poll.WithTimeout(3*time.Second), poll.WithDelay(50*time.Millisecond))

	cancel()
	assert.NilError(t, <-done)
}
