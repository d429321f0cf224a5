// Package project manages loaded projects for a serving layer.
//
// A [Registry] maps absolute project paths to loaded instances, each holding
// the structural graph and its overlay store. Concurrent opens of one path
// share a single load (golang.org/x/sync/singleflight), so a project is never
// loaded twice into the same registry. Instances live until [Registry.Evict]
// or [Registry.Reset].
//
// [DetectStatus] reports what a project directory contains before anything is
// loaded: whether it is a Lean project, whether it was built, whether it uses
// Mathlib, and whether it still needs a first build.
package project
