package io

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/graph"
)

// DefaultDumpPath is where the extractor writes its declaration dump,
// relative to the project root.
const DefaultDumpPath = ".lake/build/astrolabe/declarations.json"

type dump struct {
	Nodes []declaration `json:"nodes"`
	Edges *[]reference  `json:"edges,omitempty"`
}

type declaration struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	FilePath   string   `json:"file_path"`
	LineNumber int      `json:"line_number"`
	References []string `json:"references"`
}

type reference struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	FromLean *bool  `json:"from_lean,omitempty"`
}

// ReadDeclarations decodes an extractor dump from r.
//
// The input is a JSON object with a "nodes" array and an optional "edges"
// array:
//
//	{
//	  "nodes": [
//	    {"id": "Demo.add_comm", "name": "add_comm", "kind": "theorem",
//	     "file_path": "Demo/Basic.lean", "line_number": 12,
//	     "references": ["Demo.add"]}
//	  ],
//	  "edges": [{"source": "Demo.add_comm", "target": "Demo.add"}]
//	}
//
// When "edges" is absent, one structural edge is derived per distinct
// reference whose target is a node of the dump. Edges default to
// from_lean=true. A node without an id, or an edge without both endpoints,
// is an INVALID_INPUT error. Duplicate ids are returned as-is; run
// [graph.Disambiguate] to separate them.
//
// ReadDeclarations does not close r.
func ReadDeclarations(r io.Reader) (graph.Graph, error) {
	var d dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode declarations")
	}

	g := graph.Graph{Nodes: make([]graph.Node, 0, len(d.Nodes))}
	for i, n := range d.Nodes {
		if strings.TrimSpace(n.ID) == "" {
			return graph.Graph{}, errors.New(errors.ErrCodeInvalidInput, "node %d: missing id", i)
		}
		refs := n.References
		if refs == nil {
			refs = []string{}
		}
		g.Nodes = append(g.Nodes, graph.Node{
			ID:         n.ID,
			Name:       n.Name,
			Kind:       strings.ToLower(n.Kind),
			FilePath:   filepath.ToSlash(n.FilePath),
			LineNumber: n.LineNumber,
			References: refs,
			Status:     graph.StatusUnknown,
		})
	}

	if d.Edges == nil {
		g.Edges = graph.EdgesFromReferences(g.Nodes)
		return g, nil
	}
	g.Edges = make([]graph.Edge, 0, len(*d.Edges))
	for _, e := range *d.Edges {
		if e.Source == "" || e.Target == "" {
			return graph.Graph{}, errors.New(errors.ErrCodeInvalidInput, "edge %q->%q: missing endpoint", e.Source, e.Target)
		}
		fromLean := true
		if e.FromLean != nil {
			fromLean = *e.FromLean
		}
		g.Edges = append(g.Edges, graph.Edge{Source: e.Source, Target: e.Target, FromLean: fromLean})
	}
	return g, nil
}

// ImportDeclarations reads the extractor dump at path.
func ImportDeclarations(path string) (graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.Graph{}, errors.Wrap(errors.ErrCodeNotFound, err, "declaration dump %s", path)
		}
		return graph.Graph{}, errors.Wrap(errors.ErrCodeIOFailure, err, "open %s", path)
	}
	defer f.Close()
	g, err := ReadDeclarations(f)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return g, nil
}

// FileExtractor serves the declaration dump an external extractor left on
// disk. Path is resolved against the project root when relative; an empty
// Path means [DefaultDumpPath].
type FileExtractor struct {
	Path string
}

// DumpPath returns the dump location for the project at root.
func (x FileExtractor) DumpPath(root string) string {
	p := x.Path
	if p == "" {
		p = DefaultDumpPath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

// Extract reads the dump for the project at root.
func (x FileExtractor) Extract(ctx context.Context, root string) (graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return graph.Graph{}, err
	}
	return ImportDeclarations(x.DumpPath(root))
}
