package model

import "strings"

// Store holds all bookmarks and folders.
type Store struct {
	Folders   []Folder   `json:"folders"`
	Bookmarks []Bookmark `json:"bookmarks"`
}

// NewStore creates a Store holding only the root folders.
func NewStore() *Store {
	s := &Store{
		Folders:   []Folder{},
		Bookmarks: []Bookmark{},
	}
	s.EnsureRoots()
	return s
}

// EnsureRoots adds the Bookmarks Bar and Other Bookmarks folders when missing.
// Returns true if the store was changed.
func (s *Store) EnsureRoots() bool {
	changed := false
	roots := []Folder{
		{ID: BookmarksBarID, Name: "Bookmarks Bar"},
		{ID: OtherBookmarksID, Name: "Other Bookmarks"},
	}
	for _, root := range roots {
		if s.GetFolderByID(root.ID) == nil {
			s.Folders = append(s.Folders, root)
			changed = true
		}
	}
	return changed
}

// GetFoldersInFolder returns folders with the given parent ID.
// Pass nil for root level folders.
func (s *Store) GetFoldersInFolder(parentID *string) []Folder {
	var result []Folder
	for _, f := range s.Folders {
		if ptrEqual(f.ParentID, parentID) {
			result = append(result, f)
		}
	}
	return result
}

// GetBookmarksInFolder returns bookmarks in the given folder.
// Pass nil for root level bookmarks.
func (s *Store) GetBookmarksInFolder(folderID *string) []Bookmark {
	var result []Bookmark
	for _, b := range s.Bookmarks {
		if ptrEqual(b.FolderID, folderID) {
			result = append(result, b)
		}
	}
	return result
}

// GetFolderByID finds a folder by ID, returns nil if not found.
func (s *Store) GetFolderByID(id string) *Folder {
	for i := range s.Folders {
		if s.Folders[i].ID == id {
			return &s.Folders[i]
		}
	}
	return nil
}

// GetBookmarkByID finds a bookmark by ID, returns nil if not found.
func (s *Store) GetBookmarkByID(id string) *Bookmark {
	for i := range s.Bookmarks {
		if s.Bookmarks[i].ID == id {
			return &s.Bookmarks[i]
		}
	}
	return nil
}

// GetNode returns the node view of the folder or bookmark with the given ID.
func (s *Store) GetNode(id string) (Node, bool) {
	if f := s.GetFolderByID(id); f != nil {
		return FolderNode(*f), true
	}
	if b := s.GetBookmarkByID(id); b != nil {
		return BookmarkNode(*b), true
	}
	return Node{}, false
}

// HasBookmarkURL reports whether any bookmark in the store has exactly this URL.
func (s *Store) HasBookmarkURL(url string) bool {
	for _, b := range s.Bookmarks {
		if b.URL == url {
			return true
		}
	}
	return false
}

// Search returns folders whose name and bookmarks whose title or URL contain
// query, case-insensitively. Folders come first.
func (s *Store) Search(query string) []Node {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var result []Node
	for _, f := range s.Folders {
		if strings.Contains(strings.ToLower(f.Name), q) {
			result = append(result, FolderNode(f))
		}
	}
	for _, b := range s.Bookmarks {
		if b.URL == query ||
			strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.URL), q) {
			result = append(result, BookmarkNode(b))
		}
	}
	return result
}

// ImportMerge adds imported folders and bookmarks to the store.
// Items without a parent are placed under into (nil = root level).
// Folders reuse an existing folder with the same name under the same parent;
// bookmarks whose URL already exists anywhere are skipped.
func (s *Store) ImportMerge(into *string, folders []Folder, bookmarks []Bookmark) (added, skipped int) {
	idMap := make(map[string]string)

	remap := func(id *string) *string {
		if id == nil {
			return into
		}
		if mapped, ok := idMap[*id]; ok {
			return &mapped
		}
		return id
	}

	for _, f := range folders {
		parent := remap(f.ParentID)
		if existing := s.findFolder(f.Name, parent); existing != nil {
			idMap[f.ID] = existing.ID
			continue
		}
		f.ParentID = parent
		s.Folders = append(s.Folders, f)
		idMap[f.ID] = f.ID
	}

	for _, b := range bookmarks {
		if s.HasBookmarkURL(b.URL) {
			skipped++
			continue
		}
		b.FolderID = remap(b.FolderID)
		s.Bookmarks = append(s.Bookmarks, b)
		added++
	}

	return added, skipped
}

// findFolder finds a folder by name under the given parent.
func (s *Store) findFolder(name string, parentID *string) *Folder {
	for i := range s.Folders {
		if s.Folders[i].Name == name && ptrEqual(s.Folders[i].ParentID, parentID) {
			return &s.Folders[i]
		}
	}
	return nil
}

// ptrEqual compares two string pointers for equality.
func ptrEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
