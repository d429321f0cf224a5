package dag

import (
	"slices"
	"strings"
)

// StronglyConnected returns the strongly connected components of the graph
// using Tarjan's algorithm.
//
// Each component lists its node IDs in ascending order, and components are
// ordered by their smallest ID, so the result does not depend on insertion
// order. Every node appears in exactly one component; a node outside any
// cycle forms a singleton component.
func (d *DAG) StronglyConnected() [][]string {
	var (
		index   = make(map[string]int, len(d.nodes))
		lowlink = make(map[string]int, len(d.nodes))
		onStack = make(map[string]bool, len(d.nodes))
		stack   []string
		next    int
		comps   [][]string
	)

	var visit func(id string)
	visit = func(id string) {
		index[id] = next
		lowlink[id] = next
		next++
		stack = append(stack, id)
		onStack[id] = true

		for _, child := range d.outgoing[id] {
			if _, seen := index[child]; !seen {
				visit(child)
				lowlink[id] = min(lowlink[id], lowlink[child])
			} else if onStack[child] {
				lowlink[id] = min(lowlink[id], index[child])
			}
		}

		if lowlink[id] != index[id] {
			return
		}
		var comp []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			comp = append(comp, top)
			if top == id {
				break
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}

	for _, n := range d.Nodes() {
		if _, seen := index[n.ID]; !seen {
			visit(n.ID)
		}
	}

	slices.SortFunc(comps, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
	return comps
}

// ComponentIndex maps every node ID to the position of its component in the
// result of [DAG.StronglyConnected].
func (d *DAG) ComponentIndex() map[string]int {
	idx := make(map[string]int, len(d.nodes))
	for i, comp := range d.StronglyConnected() {
		for _, id := range comp {
			idx[id] = i
		}
	}
	return idx
}
