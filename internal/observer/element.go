package observer

import "strings"

// Element is the part of a page element the observer needs to walk the tree.
// Parent returns nil at the top of the tree.
type Element interface {
	TagName() string
	Parent() Element
}

// Link is an anchor element. Href is the resolved, absolute target.
type Link interface {
	Element
	Href() string
	Text() string
}

// Identified is implemented by elements that carry an id attribute.
type Identified interface {
	ID() string
}

// Document is the page the clicks happen on.
type Document interface {
	Title() string
}

// ClickEvent is a click as seen at the document level. Path is the composed
// dispatch path from the target outwards; it may be empty when the host does
// not provide one.
type ClickEvent struct {
	Target Element
	Path   []Element
}

// FindLink returns the nearest link element for ev: first along the composed
// path, then walking up from the target until the body element.
func FindLink(ev ClickEvent) Link {
	for _, el := range ev.Path {
		if link, ok := asLink(el); ok {
			return link
		}
	}

	for el := ev.Target; el != nil && !hasTag(el, "body"); el = el.Parent() {
		if link, ok := asLink(el); ok {
			return link
		}
	}
	return nil
}

func asLink(el Element) (Link, bool) {
	if el == nil || !hasTag(el, "a") {
		return nil, false
	}
	link, ok := el.(Link)
	return link, ok
}

func hasTag(el Element, tag string) bool {
	return strings.EqualFold(el.TagName(), tag)
}

// pathContainsID reports whether any element on the path has the given id.
func pathContainsID(path []Element, id string) bool {
	for _, el := range path {
		if ident, ok := el.(Identified); ok && ident.ID() == id {
			return true
		}
	}
	return false
}
