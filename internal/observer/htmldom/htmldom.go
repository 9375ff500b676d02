// Package htmldom adapts a parsed HTML page to the observer's element model.
package htmldom

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/nikbrunner/autobm/internal/observer"
)

// Document is a parsed page.
type Document struct {
	root  *html.Node
	base  *url.URL
	title string
}

// Parse reads an HTML page. pageURL is the address the page was loaded from
// and is used to resolve relative links; a <base href> in the page wins.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	doc := &Document{root: root, base: base}
	walk(root, func(n *html.Node) bool {
		switch n.Data {
		case "title":
			if doc.title == "" {
				doc.title = observer.CollapseSpace(textContent(n))
			}
		case "base":
			if href := getAttr(n, "href"); href != "" {
				if resolved, err := base.Parse(href); err == nil {
					doc.base = resolved
				}
			}
		}
		return true
	})

	return doc, nil
}

// Title implements observer.Document.
func (d *Document) Title() string {
	return d.title
}

// Anchors returns every <a> element carrying an href, in document order.
func (d *Document) Anchors() []*Element {
	var anchors []*Element
	walk(d.root, func(n *html.Node) bool {
		if n.Data == "a" && hasAttr(n, "href") {
			anchors = append(anchors, d.wrap(n))
		}
		return true
	})
	return anchors
}

// ElementByID returns the element with the given id, or nil.
func (d *Document) ElementByID(id string) *Element {
	var found *Element
	walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if getAttr(n, "id") == id {
			found = d.wrap(n)
			return false
		}
		return true
	})
	return found
}

// ClickOn builds the event a click on target dispatches, with the composed
// path running from target up to the root element.
func (d *Document) ClickOn(target *Element) observer.ClickEvent {
	ev := observer.ClickEvent{Target: target}
	for n := target.n; n != nil; n = n.Parent {
		if n.Type == html.ElementNode {
			ev.Path = append(ev.Path, d.wrap(n))
		}
	}
	return ev
}

func (d *Document) wrap(n *html.Node) *Element {
	return &Element{n: n, doc: d}
}

// Element wraps an element node.
type Element struct {
	n   *html.Node
	doc *Document
}

// TagName implements observer.Element. Like the DOM, names are upper case.
func (e *Element) TagName() string {
	return strings.ToUpper(e.n.Data)
}

// Parent implements observer.Element.
func (e *Element) Parent() observer.Element {
	for p := e.n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return e.doc.wrap(p)
		}
	}
	return nil
}

// ID implements observer.Identified.
func (e *Element) ID() string {
	return getAttr(e.n, "id")
}

// Href implements observer.Link. The href attribute is resolved against the
// document base; an absent attribute yields "".
func (e *Element) Href() string {
	raw, ok := lookupAttr(e.n, "href")
	if !ok {
		return ""
	}
	raw = strings.TrimSpace(raw)
	resolved, err := e.doc.base.Parse(raw)
	if err != nil {
		return raw
	}
	return resolved.String()
}

// Text implements observer.Link.
func (e *Element) Text() string {
	return textContent(e.n)
}

// FirstChild returns the first child element, or nil. Clicks usually land on
// a nested element rather than the anchor itself.
func (e *Element) FirstChild() *Element {
	for c := e.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return e.doc.wrap(c)
		}
	}
	return nil
}

// walk visits element nodes depth first. Returning false from fn skips the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// textContent returns the rendered text below n, skipping script and style.
func textContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return text.String()
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}
	return "", false
}

func getAttr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := lookupAttr(n, key)
	return ok
}
