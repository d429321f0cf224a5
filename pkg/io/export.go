package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matzehuels/astrolabe/pkg/dag"
	"github.com/matzehuels/astrolabe/pkg/dag/transform"
	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/fsutil"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

// ExportVersion is the format version written by [WriteJSON].
const ExportVersion = "1.0"

// Export is the merged graph of one project: structural nodes and edges
// joined with their overlay, followed by user-authored ones, plus the canvas.
type Export struct {
	Version     string          `json:"version"`
	Project     string          `json:"project"`
	GeneratedAt time.Time       `json:"generated_at"`
	Nodes       []storage.Node  `json:"nodes"`
	Edges       []storage.Edge  `json:"edges"`
	Canvas      *storage.Canvas `json:"canvas,omitempty"`

	// RemovedEdges lists the edge ids dropped by [ExportOptions.Acyclic].
	RemovedEdges []string `json:"removed_edges,omitempty"`
}

// ExportOptions configures [Build].
type ExportOptions struct {
	// Acyclic drops the back edges found by a depth-first search so the
	// exported edge set has no cycle.
	Acyclic bool

	// Canvas includes the canvas state in the export.
	Canvas bool

	// Now returns the export timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Build assembles the merged export of s.
func Build(s *storage.Store, project string, opts ExportOptions) Export {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	out := Export{
		Version:     ExportVersion,
		Project:     project,
		GeneratedAt: opts.Now().UTC(),
		Nodes:       s.Nodes(),
		Edges:       s.Edges(),
	}
	if opts.Canvas {
		c := s.Canvas()
		out.Canvas = &c
	}
	if opts.Acyclic {
		out.Edges, out.RemovedEdges = dropBackEdges(out.Nodes, out.Edges)
	}
	return out
}

// dropBackEdges removes the edges that close a cycle. Edges with an endpoint
// outside nodes cannot take part in a cycle and are kept.
func dropBackEdges(nodes []storage.Node, edges []storage.Edge) ([]storage.Edge, []string) {
	g := dag.New(nil)
	for _, n := range nodes {
		_ = g.AddNode(dag.Node{ID: n.ID})
	}
	for _, e := range edges {
		_ = g.AddEdge(dag.Edge{From: e.Source, To: e.Target})
	}
	if transform.BreakCycles(g) == 0 {
		return edges, nil
	}

	kept := make(map[[2]string]bool, g.EdgeCount())
	for _, e := range g.Edges() {
		kept[[2]string{e.From, e.To}] = true
	}
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	out := make([]storage.Edge, 0, len(edges))
	var removed []string
	for _, e := range edges {
		if !present[e.Source] || !present[e.Target] || kept[[2]string{e.Source, e.Target}] {
			out = append(out, e)
			continue
		}
		removed = append(removed, e.EdgeID)
	}
	return out, removed
}

// WriteJSON encodes e as indented JSON and writes it to w.
func WriteJSON(e Export, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes e to path, replacing any previous file atomically.
func ExportJSON(e Export, path string) error {
	if err := fsutil.WriteJSON(path, e); err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "export %s", path)
	}
	return nil
}

// WriteDOT writes e as a Graphviz digraph. User-authored nodes and edges are
// drawn dashed; a node label falls back to its name, then its id.
func WriteDOT(e Export, w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white];\n")
	buf.WriteString("\n")

	for _, n := range e.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}
	buf.WriteString("\n")
	for _, ed := range e.Edges {
		attrs := edgeAttrs(ed)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", ed.Source, ed.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", ed.Source, ed.Target, strings.Join(attrs, ", "))
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func nodeAttrs(n storage.Node) []string {
	label := n.Meta.Label
	if label == "" {
		label = n.DisplayName()
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Kind != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Kind))
	}
	if n.Meta.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", n.Meta.Color))
	}
	if n.User {
		attrs = append(attrs, `style="rounded,filled,dashed"`)
	}
	return attrs
}

func edgeAttrs(e storage.Edge) []string {
	var attrs []string
	if e.Meta.Color != "" {
		attrs = append(attrs, fmt.Sprintf("color=%q", e.Meta.Color))
	}
	if e.Meta.Width > 0 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%g", e.Meta.Width))
	}
	switch {
	case e.Meta.Style != "":
		attrs = append(attrs, fmt.Sprintf("style=%q", e.Meta.Style))
	case e.User:
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}
