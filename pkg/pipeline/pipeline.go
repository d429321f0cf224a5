// Package pipeline loads a project's graph and opens its overlay store.
//
// This package implements the load sequence shared by every entry point, so
// the CLI and any serving layer see the same graph for the same project.
//
// # Architecture
//
// A load runs these stages:
//
//  1. Cache: serve the structural graph from .astrolabe/graph.json if the
//     build artifacts are unchanged
//  2. Extract: on a miss, ask the [Extractor] for raw declarations
//  3. Disambiguate: give every colliding declaration a distinct id
//  4. Analyze: recompute fan-in, fan-out and depth for every node
//  5. Save: write the snapshot back for the next load
//  6. Storage: open .astrolabe/meta.json over the graph, migrating the
//     legacy canvas file on first use
//
// Stages 3 and 5 only run on a miss. Stage 4 always runs: statistics are
// recomputed wholesale and never trusted from disk.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	res, err := runner.Load(ctx, pipeline.Options{Root: "/path/to/project"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res.Store.AddNodeToCanvas("Demo.add_comm")
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astrolabe/pkg/analyzer"
	"github.com/matzehuels/astrolabe/pkg/cache"
	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/graph"
	"github.com/matzehuels/astrolabe/pkg/io"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

// Extractor produces the raw declarations of the project at root.
type Extractor interface {
	Extract(ctx context.Context, root string) (graph.Graph, error)
}

// ExtractorFunc adapts a function to [Extractor].
type ExtractorFunc func(ctx context.Context, root string) (graph.Graph, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, root string) (graph.Graph, error) {
	return f(ctx, root)
}

// =============================================================================
// Options - Load Configuration
// =============================================================================

// Options configures one load.
type Options struct {
	// Root is the absolute project directory.
	Root string

	// DataDir is the per-project data directory relative to Root.
	// Defaults to cache.DefaultDataDir.
	DataDir string

	// ExcludedLibraries lists dependency libraries left out of the artifact
	// hash. Defaults to cache.DefaultExcludedLibraries.
	ExcludedLibraries []string

	// Extractor is called on a cache miss. Defaults to an io.FileExtractor
	// reading the dump at io.DefaultDumpPath.
	Extractor Extractor

	// Refresh skips the snapshot and always extracts.
	Refresh bool

	// Logger defaults to the runner's logger.
	Logger *log.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.DataDir == "" {
		o.DataDir = cache.DefaultDataDir
	}
	if o.ExcludedLibraries == nil {
		o.ExcludedLibraries = cache.DefaultExcludedLibraries
	}
	if o.Extractor == nil {
		o.Extractor = io.FileExtractor{}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Validate checks the project path and the data directory.
func (o *Options) Validate() error {
	if err := errors.ValidateProjectPath(o.Root); err != nil {
		return err
	}
	return ValidateDataDir(o.DataDir)
}

// ValidateDataDir checks that dir names a subdirectory of the project root.
func ValidateDataDir(dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || filepath.IsAbs(dir) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.New(errors.ErrCodeInvalidPath, "data dir must be a relative subdirectory: %q", dir)
	}
	return nil
}

// OverlayPath returns the overlay file of the project.
func (o *Options) OverlayPath() string {
	return filepath.Join(o.Root, o.DataDir, storage.OverlayFile)
}

// LegacyCanvasPath returns the legacy canvas file of the project.
func (o *Options) LegacyCanvasPath() string {
	return filepath.Join(o.Root, o.DataDir, storage.LegacyCanvasFile)
}

// =============================================================================
// Result
// =============================================================================

// Result is a loaded project.
type Result struct {
	// Project is the library name resolved from the lakefile.
	Project string

	// Graph is the structural skeleton with fresh statistics.
	Graph graph.Graph

	// Summary describes the graph as a whole.
	Summary analyzer.Summary

	// Renames lists the ids rewritten to separate colliding declarations.
	// It is empty on a cache hit.
	Renames []graph.Rename

	// Cache is the snapshot cache of the project.
	Cache *cache.GraphCache

	// Store is the overlay store opened over Graph.
	Store *storage.Store

	// Stats contains timing and cache information.
	Stats Stats
}

// Stats contains load statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	CacheHit    bool
	MissReason  cache.MissReason
	ExtractTime time.Duration
	AnalyzeTime time.Duration
	LoadTime    time.Duration
}
