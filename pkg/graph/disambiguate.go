package graph

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Rename records one id rewritten by [Disambiguate].
type Rename struct {
	From     string
	To       string
	FilePath string
	Line     int
}

// Disambiguate resolves id collisions in nodes without dropping or merging
// any declaration.
//
// Within a group of nodes sharing an id, the node with the smallest
// (file path, line number) keeps the bare id. Every other member becomes
// "id@<file stem>", or "id@<file stem>:<line>" if that is taken too. The
// assignment depends only on the nodes themselves, never on their order in
// the input. Edges and references keep pointing at the bare id.
//
// The returned slice preserves input order; renames lists every rewritten id.
func Disambiguate(nodes []Node) ([]Node, []Rename) {
	groups := make(map[string][]int, len(nodes))
	for i, n := range nodes {
		groups[n.ID] = append(groups[n.ID], i)
	}

	out := slices.Clone(nodes)
	taken := make(map[string]bool, len(nodes))
	for id := range groups {
		taken[id] = true
	}

	ids := make([]string, 0)
	for id, members := range groups {
		if len(members) > 1 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	var renames []Rename
	for _, id := range ids {
		members := groups[id]
		slices.SortStableFunc(members, func(a, b int) int {
			return compareDecl(&nodes[a], &nodes[b])
		})
		for _, i := range members[1:] {
			n := &out[i]
			newID := uniqueID(n, taken)
			taken[newID] = true
			renames = append(renames, Rename{From: id, To: newID, FilePath: n.FilePath, Line: n.LineNumber})
			n.ID = newID
		}
	}
	return out, renames
}

func compareDecl(a, b *Node) int {
	return cmp.Or(
		strings.Compare(a.FilePath, b.FilePath),
		cmp.Compare(a.LineNumber, b.LineNumber),
		strings.Compare(a.Name, b.Name),
		strings.Compare(a.Kind, b.Kind),
	)
}

func uniqueID(n *Node, taken map[string]bool) string {
	stem := strings.TrimSuffix(filepath.Base(n.FilePath), filepath.Ext(n.FilePath))
	if stem == "" || stem == "." {
		stem = "unknown"
	}
	candidate := n.ID + "@" + stem
	if !taken[candidate] {
		return candidate
	}
	withLine := fmt.Sprintf("%s:%d", candidate, n.LineNumber)
	if !taken[withLine] {
		return withLine
	}
	for k := 2; ; k++ {
		c := fmt.Sprintf("%s#%d", withLine, k)
		if !taken[c] {
			return c
		}
	}
}
