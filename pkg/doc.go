// Package pkg provides the core libraries for Astrolabe, a dependency-graph
// explorer for Lean 4 projects.
//
// # Overview
//
// Astrolabe turns the declaration index a Lean build produces into a graph
// of declarations and their dependencies, and keeps everything a user adds
// on top of it (styling, canvas layout, custom nodes and edges) in a
// separate overlay. The packages are organized as:
//
//  1. [graph] - Node and edge types, id disambiguation, search and queries
//  2. [dag], [analyzer] - Graph algorithms and per-node statistics
//  3. [cache] - Snapshot of the structural graph, keyed by an artifact hash
//  4. [storage] - The overlay store and its merged view over the graph
//  5. [io] - Declaration dump import and graph export
//  6. [pipeline], [project] - The load sequence and the per-path registry
//  7. [session], [config], [observability] - Supporting infrastructure
//
// # Architecture
//
// The data flow of one load:
//
//	.lake/build/lib/lean/**.ilean ──hash──→ [cache] graph.json
//	         ↓ (miss)                          ↓ (hit)
//	    [io] declaration dump                  │
//	         ↓                                 │
//	    [graph] Disambiguate                   │
//	         ↓                                 ↓
//	    [analyzer] Compute ←───────────────────┘
//	         ↓
//	    [storage] Open(meta.json) ──→ merged nodes, edges and canvas
//
// The structural graph is read-only after a load. Every user change goes
// through [storage.Store] and is persisted to .astrolabe/meta.json.
package pkg
