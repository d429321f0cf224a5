package graph

import (
	"strings"
)

// =============================================================================
// Constants
// =============================================================================

// ProofStatus is the runtime proof state of a declaration. It is computed on
// demand and never trusted from a persisted snapshot.
type ProofStatus string

// Proof states.
const (
	StatusProven  ProofStatus = "proven"
	StatusSorry   ProofStatus = "sorry"
	StatusError   ProofStatus = "error"
	StatusUnknown ProofStatus = "unknown"
)

// Declaration kinds produced by the extractor. The list is not exhaustive;
// Kind is a free-form string.
const (
	KindTheorem   = "theorem"
	KindLemma     = "lemma"
	KindDef       = "def"
	KindStructure = "structure"
	KindInductive = "inductive"
	KindInstance  = "instance"
	KindAxiom     = "axiom"
	KindCustom    = "custom"
)

// EdgeSeparator joins source and target into an edge id.
const EdgeSeparator = "->"

// =============================================================================
// Node - Declaration
// =============================================================================

// Node is a declaration extracted from compiled source.
//
// Structural fields come from the extractor. DependsOnCount, UsedByCount and
// Depth are derived by the analyzer and recomputed wholesale on every load.
// Status and Content are runtime-only.
type Node struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	FilePath   string   `json:"file_path"`
	LineNumber int      `json:"line_number"`
	References []string `json:"references"`

	DependsOnCount int `json:"depends_on_count"`
	UsedByCount    int `json:"used_by_count"`
	Depth          int `json:"depth"`

	Status  ProofStatus `json:"status,omitempty"`
	Content string      `json:"content,omitempty"`
}

// ResetRuntime clears the fields that must never be restored from a snapshot.
func (n *Node) ResetRuntime() {
	n.Status = StatusUnknown
	n.Content = ""
}

// ResetStats zeroes the derived statistics.
func (n *Node) ResetStats() {
	n.DependsOnCount = 0
	n.UsedByCount = 0
	n.Depth = 0
}

// DisplayName returns the name if set, otherwise the ID.
func (n *Node) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// =============================================================================
// Edge - Directed Dependency
// =============================================================================

// Edge is a directed dependency: Source uses Target.
// FromLean is true for edges derived from source code and false for
// user-authored edges.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	FromLean bool   `json:"from_lean"`
}

// ID returns the edge identity "source->target".
func (e Edge) ID() string { return EdgeID(e.Source, e.Target) }

// EdgeID builds the identity of the edge source->target.
func EdgeID(source, target string) string {
	return source + EdgeSeparator + target
}

// ParseEdgeID splits an edge id into source and target. It reports false if
// id does not contain the separator or either side is empty.
func ParseEdgeID(id string) (source, target string, ok bool) {
	source, target, ok = strings.Cut(id, EdgeSeparator)
	if !ok || source == "" || target == "" {
		return "", "", false
	}
	return source, target, true
}

// =============================================================================
// Graph - Node/Edge Set
// =============================================================================

// Graph is a loaded node and edge set.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeIndex maps node ids to their position in g.Nodes.
func (g *Graph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// EdgesFromReferences derives one structural edge per distinct reference of
// each node whose target is present in nodes. Self-references are dropped.
func EdgesFromReferences(nodes []Node) []Edge {
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	var edges []Edge
	for _, n := range nodes {
		seen := make(map[string]bool, len(n.References))
		for _, ref := range n.References {
			if ref == n.ID || seen[ref] || !present[ref] {
				continue
			}
			seen[ref] = true
			edges = append(edges, Edge{Source: n.ID, Target: ref, FromLean: true})
		}
	}
	return edges
}
