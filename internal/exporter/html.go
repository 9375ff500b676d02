// Package exporter writes bookmarks in the Netscape bookmark file format so
// captured links can be imported into any browser.
package exporter

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/autobm/internal/model"
)

const (
	header = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`
	footer = "</DL><p>\n"
)

// DefaultExportPath returns ~/Downloads/autobm-export-YYYY-MM-DD.html.
func DefaultExportPath(now time.Time) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("autobm-export-%s.html", now.Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML writes the whole tree, starting at the top-level folders.
func ExportHTML(w io.Writer, store *model.Store) error {
	e := &encoder{w: w, store: store}
	e.printf("%s", header)
	e.items(nil, 1)
	e.printf("%s", footer)
	return e.err
}

// ExportFolder writes the folder folderID and everything below it, or
// reports an error when folderID is not a folder.
func ExportFolder(w io.Writer, store *model.Store, folderID string) error {
	f := store.GetFolderByID(folderID)
	if f == nil {
		return fmt.Errorf("export: folder %q not found", folderID)
	}
	e := &encoder{w: w, store: store}
	e.printf("%s", header)
	e.folder(*f, 1)
	e.printf("%s", footer)
	return e.err
}

// encoder keeps the first write error so callers check once at the end.
type encoder struct {
	w     io.Writer
	store *model.Store
	err   error
}

func (e *encoder) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *encoder) items(parentID *string, depth int) {
	for _, f := range e.store.GetFoldersInFolder(parentID) {
		e.folder(f, depth)
	}

	prefix := strings.Repeat("    ", depth)
	for _, b := range e.store.GetBookmarksInFolder(parentID) {
		e.printf("%s<DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
			prefix,
			html.EscapeString(b.URL),
			b.CreatedAt.Unix(),
			html.EscapeString(b.Title))
	}
}

func (e *encoder) folder(f model.Folder, depth int) {
	prefix := strings.Repeat("    ", depth)

	attrs := ""
	if f.ID == model.BookmarksBarID {
		attrs = ` PERSONAL_TOOLBAR_FOLDER="true"`
	}
	e.printf("%s<DT><H3%s>%s</H3>\n", prefix, attrs, html.EscapeString(f.Name))
	e.printf("%s<DL><p>\n", prefix)

	id := f.ID
	e.items(&id, depth+1)

	e.printf("%s</DL><p>\n", prefix)
}
