// Package importer reads Netscape bookmark files, the format every browser
// exports, so links saved before autobm ran are known to the store.
package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nikbrunner/autobm/internal/messaging"
	"github.com/nikbrunner/autobm/internal/model"
)

// Result is a parsed bookmark file. Top-level items have a nil parent.
type Result struct {
	Folders   []model.Folder
	Bookmarks []model.Bookmark
	// Skipped counts links that are not http(s) addresses (javascript:,
	// place:, file: ...). They can never be captured, so they are dropped.
	Skipped int
}

// ParseHTML parses a Netscape bookmark file.
func ParseHTML(r io.Reader) (Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Result{}, err
	}

	p := &parser{}
	p.visit(doc)
	return p.result, nil
}

type parser struct {
	result Result

	// parents holds the enclosing folder ids; the last entry is current.
	parents []string
	// pending is the folder named by the last <H3>, entered at the next <DL>.
	pending string
}

func (p *parser) parent() *string {
	if len(p.parents) == 0 {
		return nil
	}
	id := p.parents[len(p.parents)-1]
	return &id
}

func (p *parser) visit(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h3":
			p.folder(n)
			return
		case "a":
			p.bookmark(n)
			return
		case "dl":
			p.list(n)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.visit(c)
	}
}

func (p *parser) folder(n *html.Node) {
	name := collapse(text(n))
	if name == "" {
		return
	}
	f := model.NewFolder(model.NewFolderParams{Name: name, ParentID: p.parent()})
	p.result.Folders = append(p.result.Folders, f)
	p.pending = f.ID
}

func (p *parser) bookmark(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" {
		return
	}
	if !messaging.IsNetworkURL(href) {
		p.result.Skipped++
		return
	}

	title := collapse(text(n))
	if title == "" {
		title = href
	}

	b := model.NewBookmark(model.NewBookmarkParams{Title: title, URL: href, FolderID: p.parent()})
	if ts, err := strconv.ParseInt(attr(n, "add_date"), 10, 64); err == nil {
		b.CreatedAt = time.Unix(ts, 0)
	}
	p.result.Bookmarks = append(p.result.Bookmarks, b)
}

// list walks a <DL>. When a folder heading precedes it, its items belong
// to that folder.
func (p *parser) list(n *html.Node) {
	entered := p.pending != ""
	if entered {
		p.parents = append(p.parents, p.pending)
		p.pending = ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.visit(c)
	}
	if entered {
		p.parents = p.parents[:len(p.parents)-1]
	}
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
