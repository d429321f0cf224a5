package graph

import (
	"cmp"
	"slices"
	"strings"
)

// Search match scores.
const (
	ScoreExact    = 100
	ScorePrefix   = 50
	ScoreContains = 10
)

// DefaultSearchLimit caps search results when the caller passes a limit <= 0.
const DefaultSearchLimit = 50

// Index is a read-only query view over a [Graph].
type Index struct {
	g     *Graph
	byID  map[string]int
	out   map[string][]string
	in    map[string][]string
	edges int
}

// NewIndex builds an index over g. The graph must not be modified while the
// index is in use.
func NewIndex(g *Graph) *Index {
	idx := &Index{
		g:    g,
		byID: g.NodeIndex(),
		out:  make(map[string][]string),
		in:   make(map[string][]string),
	}
	for _, e := range g.Edges {
		idx.out[e.Source] = append(idx.out[e.Source], e.Target)
		idx.in[e.Target] = append(idx.in[e.Target], e.Source)
	}
	idx.edges = len(g.Edges)
	return idx
}

// Node returns the node with the given id.
func (x *Index) Node(id string) (*Node, bool) {
	i, ok := x.byID[id]
	if !ok {
		return nil, false
	}
	return &x.g.Nodes[i], true
}

// SearchResult is one match returned by [Index.Search].
type SearchResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line_number"`
	Score    int    `json:"-"`
}

// Search finds nodes whose name or id matches q, case-insensitively.
//
// Exact matches rank above prefix matches, which rank above substring
// matches; ties are ordered by name then id. An empty query returns every
// node ordered by name. At most limit results are returned.
func (x *Index) Search(q string, limit int) []SearchResult {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q = strings.ToLower(strings.TrimSpace(q))

	var results []SearchResult
	for _, n := range x.g.Nodes {
		score := matchScore(q, strings.ToLower(n.Name), strings.ToLower(n.ID))
		if score < 0 {
			continue
		}
		results = append(results, SearchResult{
			ID:       n.ID,
			Name:     n.Name,
			Kind:     n.Kind,
			FilePath: n.FilePath,
			Line:     n.LineNumber,
			Score:    score,
		})
	}

	slices.SortFunc(results, func(a, b SearchResult) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			strings.Compare(a.Name, b.Name),
			strings.Compare(a.ID, b.ID),
		)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// matchScore returns -1 when neither name nor id matches q.
func matchScore(q, name, id string) int {
	switch {
	case q == "":
		return 0
	case name == q || id == q:
		return ScoreExact
	case strings.HasPrefix(name, q) || strings.HasPrefix(id, q):
		return ScorePrefix
	case strings.Contains(name, q) || strings.Contains(id, q):
		return ScoreContains
	default:
		return -1
	}
}

// NodeRef is a short reference to a node.
type NodeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Deps lists the direct neighbours of a node.
type Deps struct {
	NodeID    string    `json:"node_id"`
	DependsOn []NodeRef `json:"depends_on"`
	UsedBy    []NodeRef `json:"used_by"`
}

// Dependencies returns the nodes id depends on and the nodes that use it.
// Edge endpoints absent from the graph are skipped. It reports false if id
// is not a node of the graph.
func (x *Index) Dependencies(id string) (Deps, bool) {
	if _, ok := x.byID[id]; !ok {
		return Deps{}, false
	}
	d := Deps{NodeID: id, DependsOn: []NodeRef{}, UsedBy: []NodeRef{}}
	for _, t := range x.out[id] {
		if n, ok := x.Node(t); ok {
			d.DependsOn = append(d.DependsOn, NodeRef{ID: n.ID, Name: n.Name, Kind: n.Kind})
		}
	}
	for _, s := range x.in[id] {
		if n, ok := x.Node(s); ok {
			d.UsedBy = append(d.UsedBy, NodeRef{ID: n.ID, Name: n.Name, Kind: n.Kind})
		}
	}
	return d, true
}

// Stats summarizes a graph.
type Stats struct {
	TotalNodes int            `json:"total_nodes"`
	TotalEdges int            `json:"total_edges"`
	ByKind     map[string]int `json:"by_kind"`
	ByStatus   map[string]int `json:"by_status"`
}

// Stats counts nodes by kind and proof status. Nodes without a status are
// counted as unknown.
func (x *Index) Stats() Stats {
	s := Stats{
		TotalNodes: len(x.g.Nodes),
		TotalEdges: x.edges,
		ByKind:     make(map[string]int),
		ByStatus:   make(map[string]int),
	}
	for _, n := range x.g.Nodes {
		s.ByKind[n.Kind]++
		status := n.Status
		if status == "" {
			status = StatusUnknown
		}
		s.ByStatus[string(status)]++
	}
	return s
}
