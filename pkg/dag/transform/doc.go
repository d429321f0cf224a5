// Package transform provides cycle-related transformations over a dependency
// [dag.DAG].
//
// # Cycle Edges
//
// [CycleEdges] lists the edges whose endpoints lie in the same strongly
// connected component. Such an edge closes a dependency loop, so following it
// never leads closer to a leaf. The analyzer ignores these edges when it
// computes depth.
//
// # Breaking Cycles
//
// [BreakCycles] removes DFS back edges until the graph is acyclic. It is used
// when exporting a graph to consumers that require a DAG. Traversal starts
// from nodes in ascending ID order, so the removed edges are the same for any
// insertion order.
//
// [dag.DAG]: github.com/matzehuels/astrolabe/pkg/dag.DAG
package transform
