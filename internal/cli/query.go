package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/graph"
	pkgio "github.com/matzehuels/astrolabe/pkg/io"
	"github.com/matzehuels/astrolabe/pkg/project"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

// loadCommand creates the load command.
func (c *CLI) loadCommand() *cobra.Command {
	var lf loadFlags
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the project graph and report how it was obtained",
		Long: `Load the project graph. The snapshot in .astrolabe/graph.json is used when
the build artifacts are unchanged; otherwise the declaration dump is read,
analyzed and written back as the new snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prog := newProgress(c.Logger)
			h, err := c.openWith(cmd.Context(), lf)
			if err != nil {
				return err
			}
			if lf.refresh && h.Stats.CacheHit {
				if h, err = c.projects(lf).Refresh(cmd.Context(), h.Root); err != nil {
					return err
				}
			}
			prog.done("load finished", "handle", h.ID)

			c.out.success("Loaded %s", StyleHighlight.Render(h.Project))
			c.out.stats(h.Stats.NodeCount, h.Stats.EdgeCount, h.Stats.CacheHit)
			if !h.Stats.CacheHit && h.Stats.MissReason != "" {
				c.out.detail("snapshot miss: %s", h.Stats.MissReason)
			}
			if n := len(h.Renames); n > 0 {
				c.out.warning("%d colliding declarations renamed", n)
				for _, r := range h.Renames {
					c.out.detail("%s %s %s (%s:%d)", r.From, iconArrow, r.To, r.FilePath, r.Line)
				}
			}
			if m := h.Store.Migration(); m != storage.MigrationNone {
				c.out.detail("legacy canvas: %s", m)
			}
			c.out.detail("max depth %d · %d cycles · loaded in %s",
				h.Summary.MaxDepth, h.Summary.Cycles, h.Stats.LoadTime.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&lf.refresh, "refresh", false, "ignore the snapshot and re-extract")
	cmd.Flags().StringVar(&lf.dump, "dump", "", "declaration dump, relative to the project (default "+pkgio.DefaultDumpPath+")")
	return cmd
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show node and edge counts by kind and proof status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			g := h.Store.Graph()
			stats := graph.NewIndex(&g).Stats()
			if asJSON {
				return c.out.json(stats)
			}

			c.out.title(h.Project)
			c.out.keyValue("nodes", fmt.Sprint(stats.TotalNodes))
			c.out.keyValue("edges", fmt.Sprint(stats.TotalEdges))
			c.out.keyValue("max depth", fmt.Sprint(h.Summary.MaxDepth))
			c.out.keyValue("cycles", fmt.Sprint(h.Summary.Cycles))
			if h.Summary.Dangling > 0 {
				c.out.keyValue("dangling", fmt.Sprint(h.Summary.Dangling))
			}
			c.out.info("by kind")
			c.out.counts(stats.ByKind)
			c.out.info("by status")
			c.out.counts(stats.ByStatus)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find declarations by name or id",
		Long: `Find declarations whose name or id matches the query, case-insensitively.
Exact matches rank first, then prefix matches, then substring matches. Without
a query every node is listed by name.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			g := h.Store.Graph()
			results := graph.NewIndex(&g).Search(q, limit)
			if asJSON {
				return c.out.json(results)
			}
			if len(results) == 0 {
				c.out.info("No matches for %q", q)
				return nil
			}
			for _, r := range results {
				c.out.keyValue(r.Kind, StyleHighlight.Render(r.ID))
				if r.FilePath != "" {
					c.out.detail("%s:%d", r.FilePath, r.Line)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", graph.DefaultSearchLimit, "maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// depsCommand creates the deps command.
func (c *CLI) depsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "deps <node-id>",
		Short: "List what a declaration depends on and what uses it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			g := h.Store.Graph()
			deps, ok := graph.NewIndex(&g).Dependencies(args[0])
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "node %q not found", args[0])
			}
			if asJSON {
				return c.out.json(deps)
			}

			c.out.title(deps.NodeID)
			c.out.info("depends on (%d)", len(deps.DependsOn))
			for _, d := range deps.DependsOn {
				c.out.detail("%s %s", d.ID, d.Kind)
			}
			c.out.info("used by (%d)", len(deps.UsedBy))
			for _, d := range deps.UsedBy {
				c.out.detail("%s %s", d.ID, d.Kind)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// statusCommand creates the status command. It never loads the project.
func (c *CLI) statusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect the project directory without loading it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			st := project.DetectStatus(root, c.cfg.DataDir)
			if asJSON {
				return c.out.json(st)
			}

			c.out.title(root)
			c.out.keyValue("lean project", yesNo(st.IsLeanProject))
			c.out.keyValue("toolchain", orDash(st.LeanVersion))
			c.out.keyValue("mathlib", yesNo(st.UsesMathlib))
			c.out.keyValue(".lake", yesNo(st.HasLakeDir))
			c.out.keyValue("build cache", yesNo(st.HasBuildCache))
			c.out.keyValue(".ilean files", yesNo(st.HasIleanFiles))
			c.out.keyValue("snapshot", yesNo(st.HasSnapshot))
			c.out.keyValue("overlay", yesNo(st.HasOverlay))
			if st.NeedsInit {
				c.out.nextStep("Build the project first", "lake build")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
