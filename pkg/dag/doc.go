// Package dag provides the directed dependency graph used to analyze
// declaration graphs.
//
// # Overview
//
// Every declaration in a proof project is a node; an edge From→To records that
// the body of From names To. The structure answers the adjacency questions the
// analyzer needs: dependencies ([DAG.Children]), dependents ([DAG.Parents]),
// fan-out and fan-in ([DAG.OutDegree], [DAG.InDegree]), leaves ([DAG.Sinks])
// and unused declarations ([DAG.Sources]).
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]. Nodes must have unique IDs, and edges can only connect
// existing nodes:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "Nat.add_comm"})
//	g.AddNode(dag.Node{ID: "Nat.add_succ"})
//	g.AddEdge(dag.Edge{From: "Nat.add_comm", To: "Nat.add_succ"})
//
// # Cycles
//
// Mutually recursive declarations make real declaration graphs cyclic, so the
// graph accepts cycles and self-loops. [DAG.Validate] reports whether the graph
// is acyclic, and [DAG.StronglyConnected] groups nodes into strongly connected
// components. Two nodes in the same component depend on each other through
// some path; an edge inside a component is a cycle edge.
//
// # Metadata
//
// Both nodes and the graph itself support arbitrary metadata via [Metadata] maps.
// Metadata maps are never nil after creation - empty maps are automatically
// initialized.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize access
// if multiple goroutines read or modify the same graph. Read-only queries on a
// graph that is no longer modified can safely run in parallel.
//
// # Related Packages
//
// The [transform] subpackage classifies cycle edges and breaks cycles for
// consumers that require an acyclic graph.
//
// [transform]: github.com/matzehuels/astrolabe/pkg/dag/transform
package dag
