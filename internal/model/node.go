package model

// Node is the uniform view of a store entry handed to callers of the
// bookmark API. A node without a URL is a folder.
type Node struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
}

// IsFolder reports whether the node is a folder node.
func (n Node) IsFolder() bool {
	return n.URL == ""
}

// FolderNode converts a folder into its node view.
func FolderNode(f Folder) Node {
	return Node{ID: f.ID, ParentID: deref(f.ParentID), Title: f.Name}
}

// BookmarkNode converts a bookmark into its node view.
func BookmarkNode(b Bookmark) Node {
	return Node{ID: b.ID, ParentID: deref(b.FolderID), Title: b.Title, URL: b.URL}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
