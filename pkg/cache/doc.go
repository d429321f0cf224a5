// Package cache persists the structural graph of a project between loads.
//
// # Snapshot
//
// [GraphCache] stores nodes and edges in <root>/.astrolabe/graph.json together
// with a format version and a hash of the project's compiled artifacts. A
// later [GraphCache.Load] returns the snapshot only if both still match, so a
// rebuild of any of the project's own .ilean files forces a fresh extraction.
//
// # Artifact Hash
//
// [GraphCache.ComputeHash] folds the relative path, modification time and size
// of every tracked artifact into one SHA-256 digest. Artifacts of dependency
// libraries such as Mathlib are never tracked, so updating a dependency does
// not invalidate the project's snapshot. See [DefaultExcludedLibraries].
//
// # Failure Model
//
// Reads never fail: a missing, unparseable, outdated or stale snapshot is a
// miss with a [MissReason]. Writes return coded errors from pkg/errors.
package cache
