package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astrolabe/pkg/analyzer"
	"github.com/matzehuels/astrolabe/pkg/cache"
	"github.com/matzehuels/astrolabe/pkg/graph"
	"github.com/matzehuels/astrolabe/pkg/observability"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

// Runner executes loads. It holds no per-project state, so one Runner can
// serve any number of projects from multiple goroutines.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Load materializes the project at opts.Root: the structural graph from the
// snapshot or the extractor, fresh statistics, and the overlay store.
//
// Snapshot read problems are misses, never errors. A failing extractor or a
// failing snapshot write is returned to the caller.
func (r *Runner) Load(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Root)

	res, err := r.load(ctx, opts, logger)
	elapsed := time.Since(start)

	nodes, edges, cached := 0, 0, false
	if res != nil {
		res.Stats.LoadTime = elapsed
		nodes, edges, cached = res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.CacheHit
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.Root, nodes, edges, cached, elapsed, err)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded project",
		"project", res.Project,
		"nodes", nodes,
		"edges", edges,
		"cached", cached,
		"duration", elapsed)
	return res, nil
}

func (r *Runner) load(ctx context.Context, opts Options, logger *log.Logger) (*Result, error) {
	c := cache.New(opts.Root, cache.Options{
		DataDir:           opts.DataDir,
		ExcludedLibraries: opts.ExcludedLibraries,
		Logger:            logger,
		Now:               opts.Now,
	})
	res := &Result{Project: c.ProjectName(), Cache: c}

	// Stage 1: Cache
	var g graph.Graph
	if opts.Refresh {
		res.Stats.MissReason = "refresh"
	} else {
		var st cache.Status
		g, st = c.LoadWithStatus()
		res.Stats.CacheHit = st.Valid
		res.Stats.MissReason = st.Reason
	}

	if !res.Stats.CacheHit {
		// Stage 2: Extract
		extractStart := time.Now()
		raw, err := opts.Extractor.Extract(ctx, opts.Root)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		res.Stats.ExtractTime = time.Since(extractStart)
		logger.Debug("extracted declarations",
			"nodes", len(raw.Nodes),
			"edges", len(raw.Edges),
			"reason", res.Stats.MissReason,
			"duration", res.Stats.ExtractTime)

		// Stage 3: Disambiguate
		g.Nodes, res.Renames = graph.Disambiguate(raw.Nodes)
		g.Edges = raw.Edges
		if g.Edges == nil {
			g.Edges = []graph.Edge{}
		}
		resetRuntime(g.Nodes)
		for _, rn := range res.Renames {
			logger.Warn("colliding declaration id", "id", rn.From, "renamed", rn.To, "file", rn.FilePath, "line", rn.Line)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: Analyze
	analyzeStart := time.Now()
	g.Nodes, res.Summary = analyzer.Compute(g.Nodes, g.Edges)
	res.Stats.AnalyzeTime = time.Since(analyzeStart)
	if res.Summary.Dangling > 0 {
		logger.Debug("edges with missing endpoints ignored", "count", res.Summary.Dangling)
	}

	// Stage 5: Save
	if !res.Stats.CacheHit {
		if err := c.Save(g.Nodes, g.Edges); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}

	// Stage 6: Storage
	res.Graph = g
	res.Store = storage.Open(g, opts.OverlayPath(), storage.Options{
		LegacyCanvasPath: opts.LegacyCanvasPath(),
		Logger:           logger,
		Now:              opts.Now,
	})
	if m := res.Store.Migration(); m == storage.MigrationMigrated {
		logger.Info("migrated legacy canvas", "path", opts.LegacyCanvasPath())
	}

	res.Stats.NodeCount = len(g.Nodes)
	res.Stats.EdgeCount = len(g.Edges)
	return res, nil
}

// Reanalyze recomputes statistics for res.Graph, writes a new snapshot and
// hands the refreshed skeleton to the store. Use it after the extractor
// output changed underneath a live store.
func (r *Runner) Reanalyze(ctx context.Context, res *Result, opts Options) error {
	r.applyLogger(&opts)
	opts.SetDefaults()
	extractStart := time.Now()
	raw, err := opts.Extractor.Extract(ctx, opts.Root)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	extractTime := time.Since(extractStart)
	nodes, renames := graph.Disambiguate(raw.Nodes)
	resetRuntime(nodes)
	nodes, sum := analyzer.Compute(nodes, raw.Edges)
	if err := res.Cache.Save(nodes, raw.Edges); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	res.Graph = graph.Graph{Nodes: nodes, Edges: raw.Edges}
	res.Summary = sum
	res.Renames = renames
	res.Stats.NodeCount = len(nodes)
	res.Stats.EdgeCount = len(raw.Edges)
	res.Stats.CacheHit = false
	res.Stats.MissReason = "refresh"
	res.Stats.ExtractTime = extractTime
	res.Store.SetSkeleton(res.Graph)
	opts.Logger.Info("reanalyzed project", "project", res.Project, "nodes", len(nodes), "edges", len(raw.Edges))
	return nil
}

// resetRuntime puts freshly extracted nodes in the shape a snapshot load
// produces, so a hit and a miss yield identical graphs.
func resetRuntime(nodes []graph.Node) {
	for i := range nodes {
		nodes[i].ResetRuntime()
		if nodes[i].References == nil {
			nodes[i].References = []string{}
		}
	}
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
