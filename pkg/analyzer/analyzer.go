// Package analyzer derives per-declaration statistics from a dependency graph.
//
// [Compute] fills in, for every node:
//
//   - DependsOnCount: edges leaving the node whose target is present
//   - UsedByCount: edges entering the node whose source is present
//   - Depth: 0 for a leaf, otherwise 1 + the largest depth among its
//     dependencies
//
// # Cycles
//
// Mutually recursive declarations form cycles. An edge whose endpoints share
// a strongly connected component never leads closer to a leaf, so it is not a
// recognized dependency for depth purposes (it still counts toward the
// degree statistics). All members of a component share one depth: 0 if no
// edge leaves the component, otherwise 1 + the deepest dependency reached by
// an edge leaving it. For A→B and B→A with no other edges both nodes have
// depth 0.
//
// Depth is computed by memoized recursion over components. Each call chain
// carries its own ancestor path, separate from the global memo of finished
// components; a dependency whose component is already on the current path is
// skipped rather than followed. Results depend only on graph structure and
// never on input order.
package analyzer

import (
	"slices"

	"github.com/matzehuels/astrolabe/pkg/dag"
	"github.com/matzehuels/astrolabe/pkg/dag/transform"
	"github.com/matzehuels/astrolabe/pkg/graph"
)

// Summary describes the graph as a whole after [Compute].
type Summary struct {
	Nodes      int // distinct node ids
	Edges      int // edges with both endpoints present
	Dangling   int // edges with a missing endpoint
	MaxDepth   int
	MaxUsedBy  int
	Leaves     int // nodes with depth 0
	CycleEdges int // edges inside a strongly connected component
	Cycles     int // strongly connected components with more than one node or a self-loop
}

// Compute returns a copy of nodes with DependsOnCount, UsedByCount and Depth
// recomputed from scratch over edges. The input slices are not modified and
// the output preserves input order.
//
// If nodes contains a repeated id, the first occurrence defines the graph and
// every occurrence receives its statistics; run [graph.Disambiguate] first to
// keep them apart.
func Compute(nodes []graph.Node, edges []graph.Edge) ([]graph.Node, Summary) {
	g := dag.New(nil)
	for _, n := range nodes {
		_ = g.AddNode(dag.Node{ID: n.ID})
	}

	var sum Summary
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e.Source, To: e.Target}); err != nil {
			sum.Dangling++
		}
	}
	sum.Nodes = g.NodeCount()
	sum.Edges = g.EdgeCount()

	cyclic := make(map[[2]string]bool)
	for _, e := range transform.CycleEdges(g) {
		cyclic[[2]string{e.From, e.To}] = true
		sum.CycleEdges++
	}
	for _, comp := range g.StronglyConnected() {
		if len(comp) > 1 || cyclic[[2]string{comp[0], comp[0]}] {
			sum.Cycles++
		}
	}

	depths := depthsOf(g)

	out := slices.Clone(nodes)
	for i := range out {
		n := &out[i]
		n.ResetStats()
		n.DependsOnCount = g.OutDegree(n.ID)
		n.UsedByCount = g.InDegree(n.ID)
		n.Depth = depths[n.ID]
	}

	for _, n := range g.Nodes() {
		d := depths[n.ID]
		sum.MaxDepth = max(sum.MaxDepth, d)
		sum.MaxUsedBy = max(sum.MaxUsedBy, g.InDegree(n.ID))
		if d == 0 {
			sum.Leaves++
		}
	}
	return out, sum
}

// path is an immutable chain of ancestor components. Extending it never
// affects sibling branches that hold the shorter chain.
type path struct {
	comp   int
	parent *path
}

func (p *path) contains(comp int) bool {
	for ; p != nil; p = p.parent {
		if p.comp == comp {
			return true
		}
	}
	return false
}

// depthsOf resolves depth per strongly connected component and hands every
// member its component's depth. A dependency whose component is already on
// the current path, the component itself included, is not followed: that is
// what ends the recursion on cycles and self-loops.
func depthsOf(g *dag.DAG) map[string]int {
	comps := g.StronglyConnected()
	compOf := make(map[string]int, g.NodeCount())
	for i, c := range comps {
		for _, id := range c {
			compOf[id] = i
		}
	}
	memo := make(map[int]int, len(comps))

	var depth func(c int, ancestors *path) int
	depth = func(c int, ancestors *path) int {
		if d, ok := memo[c]; ok {
			return d
		}
		here := &path{comp: c, parent: ancestors}
		d := 0
		for _, member := range comps[c] {
			for _, dep := range g.Children(member) {
				dc := compOf[dep]
				if here.contains(dc) {
					continue
				}
				d = max(d, depth(dc, here)+1)
			}
		}
		memo[c] = d
		return d
	}

	out := make(map[string]int, g.NodeCount())
	for id, c := range compOf {
		out[id] = depth(c, nil)
	}
	return out
}
