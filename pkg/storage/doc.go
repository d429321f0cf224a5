// Package storage is the mutable layer over a project's structural graph.
//
// A [Store] joins a read-only skeleton (the nodes and edges of one load) with
// an overlay file, .astrolabe/meta.json, that holds everything a user can
// change:
//
//   - node meta (label, color, size, shape, effect, pinned, notes, tags) and
//     the visible flag that puts a node on the canvas
//   - edge meta (color, width, style, effect, notes), keyed "source->target"
//   - canvas positions and the viewport
//   - user-authored nodes and edges, tagged "type": "custom"
//
// The skeleton is never written by this package and never modified in place;
// [Store.Nodes] and [Store.Edges] merge the two at query time.
//
// # Structural vs User Entities
//
// Structural nodes and edges come from compiled source. Their overlay can be
// cleared but they cannot be removed: [Store.DeleteNode] on a structural node
// only clears its overlay, and [Store.DeleteEdge] on a structural edge fails
// with INVALID_OPERATION. User nodes and edges are deleted outright, and
// deleting a user node cascades to every edge touching it.
//
// # Persistence
//
// Every mutation writes the whole overlay through an atomic replace, under a
// per-store mutex. Read failures never surface: a missing overlay starts
// empty and an unparseable one is logged and replaced by defaults. Write
// failures are returned as IO_FAILURE errors and leave the in-memory state
// untouched.
//
// # Legacy Canvas
//
// Older projects kept canvas state in .astrolabe/canvas.json. [Open] migrates
// it once, when the overlay does not yet own any canvas data, and persists
// the result immediately. The legacy file is only removed by an explicit
// [Store.CleanupOldCanvas].
package storage
