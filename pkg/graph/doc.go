// Package graph defines the declaration graph data model.
//
// # Core Types
//
//   - [Node]: a declaration (theorem, definition, structure, ...) with its
//     source location, the ids its body references and derived statistics
//   - [Edge]: a directed dependency, structural (FromLean) or user-authored
//   - [Graph]: a node and edge set as produced by one load
//
// Edge identity is "source->target"; use [EdgeID] and [ParseEdgeID] to build
// and split it.
//
// # Id Collisions
//
// Two distinct declarations can share an id within one load. [Disambiguate]
// renames all but one of them with a file-stem suffix using an
// order-independent rule, so re-running a load over the same files always
// yields the same ids.
//
// # Queries
//
// [Index] answers the read-only questions a viewer asks of a loaded graph:
// ranked name search ([Index.Search]), direct neighbours
// ([Index.Dependencies]) and totals by kind and proof status ([Index.Stats]).
//
// # Runtime Fields
//
// [Node.Status] and [Node.Content] are computed on demand. They are omitted
// from snapshots and reset by [Node.ResetRuntime] whenever a node is read back
// from disk.
//
// # Concurrency
//
// Graph values are plain data. An [Index] is safe for concurrent reads as long
// as the underlying graph is not modified.
package graph
