// Package io moves graphs across the process boundary.
//
// # Import
//
// Declarations come from an external extractor that reads the compiler's
// artifacts and leaves a JSON dump behind. [ReadDeclarations] decodes that
// dump into a [graph.Graph]; [FileExtractor] locates it for a project and is
// what the load pipeline calls on a cache miss:
//
//	g, err := io.FileExtractor{}.Extract(ctx, "/path/to/project")
//
// The dump carries raw nodes only. Derived statistics are left at zero and
// colliding ids are left in place; the pipeline disambiguates and analyzes.
//
// # Export
//
// [Build] takes the merged view of a storage.Store (structural entities joined
// with their overlay, then user-authored ones) and [WriteJSON], [ExportJSON]
// or [WriteDOT] serialize it:
//
//	e := io.Build(store, "Demo", io.ExportOptions{Acyclic: true})
//	err := io.WriteDOT(e, os.Stdout)
//
// With Acyclic set, back edges found by a depth-first search are dropped and
// listed in Export.RemovedEdges, so tools that need a DAG can consume the
// output directly.
//
// [graph.Graph]: github.com/matzehuels/astrolabe/pkg/graph.Graph
package io
