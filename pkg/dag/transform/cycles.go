package transform

import "github.com/matzehuels/astrolabe/pkg/dag"

// CycleEdges returns every edge of g whose endpoints share a strongly
// connected component, including self-loops. Parallel edges are reported once
// per occurrence, in insertion order.
func CycleEdges(g *dag.DAG) []dag.Edge {
	comp := g.ComponentIndex()
	var out []dag.Edge
	for _, e := range g.Edges() {
		if comp[e.From] == comp[e.To] {
			out = append(out, e)
		}
	}
	return out
}

// BreakCycles removes back edges found by a depth-first search and returns
// how many distinct (from, to) pairs were removed. After it returns,
// g.Validate() reports no cycle.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int)
	var backEdges [][2]string
	seen := make(map[[2]string]bool)

	var dfs func(node string)
	dfs = func(node string) {
		color[node] = gray
		for _, child := range g.Children(node) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				if e := [2]string{node, child}; !seen[e] {
					seen[e] = true
					backEdges = append(backEdges, e)
				}
			}
		}
		color[node] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e[0], e[1])
	}
	return len(backEdges)
}
