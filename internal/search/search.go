// Package search ranks captured bookmarks against a typed query.
package search

import (
	"sort"

	"github.com/sahilm/fuzzy"

	"github.com/nikbrunner/autobm/internal/model"
)

// Field names the part of a bookmark a query matched.
type Field string

const (
	FieldTitle Field = "title"
	FieldURL   Field = "url"
)

// Result is a fuzzy match. MatchedIndexes point into the matched field.
type Result struct {
	Node           model.Node
	Field          Field
	MatchedIndexes []int
	Score          int
}

// titles and urls implement fuzzy.Source over the same bookmark slice.
type titles []model.Node

func (s titles) String(i int) string { return s[i].Title }
func (s titles) Len() int            { return len(s) }

type urls []model.Node

func (s urls) String(i int) string { return s[i].URL }
func (s urls) Len() int            { return len(s) }

// Bookmarks matches query against the title and URL of every bookmark in
// nodes; folders are ignored. Each bookmark appears once, under its better
// scoring field, and results are sorted best first.
func Bookmarks(nodes []model.Node, query string) []Result {
	if query == "" {
		return nil
	}

	var leaves []model.Node
	for _, n := range nodes {
		if !n.IsFolder() {
			leaves = append(leaves, n)
		}
	}

	best := make(map[int]Result)
	collect := func(field Field, matches fuzzy.Matches) {
		for _, m := range matches {
			if prev, ok := best[m.Index]; ok && prev.Score >= m.Score {
				continue
			}
			best[m.Index] = Result{
				Node:           leaves[m.Index],
				Field:          field,
				MatchedIndexes: m.MatchedIndexes,
				Score:          m.Score,
			}
		}
	}
	collect(FieldTitle, fuzzy.FindFrom(query, titles(leaves)))
	collect(FieldURL, fuzzy.FindFrom(query, urls(leaves)))

	indexes := make([]int, 0, len(best))
	for i := range best {
		indexes = append(indexes, i)
	}
	sort.Slice(indexes, func(a, b int) bool {
		ra, rb := best[indexes[a]], best[indexes[b]]
		if ra.Score != rb.Score {
			return ra.Score > rb.Score
		}
		return indexes[a] < indexes[b]
	})

	results := make([]Result, len(indexes))
	for i, idx := range indexes {
		results[i] = best[idx]
	}
	return results
}
