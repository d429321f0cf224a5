package io

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/graph"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

const sampleDump = `{
  "nodes": [
    {"id": "Demo.add_comm", "name": "add_comm", "kind": "Theorem", "file_path": "Demo/Basic.lean", "line_number": 12, "references": ["Demo.add", "Demo.add", "Mathlib.ring"]},
    {"id": "Demo.add", "name": "add", "kind": "def", "file_path": "Demo/Basic.lean", "line_number": 3}
  ]
}`

func TestReadDeclarations_DerivesEdges(t *testing.T) {
	g, err := ReadDeclarations(strings.NewReader(sampleDump))
	if err != nil {
		t.Fatalf("ReadDeclarations: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(g.Nodes))
	}
	if g.Nodes[0].Kind != graph.KindTheorem {
		t.Errorf("kind = %q, want lower-cased %q", g.Nodes[0].Kind, graph.KindTheorem)
	}
	if g.Nodes[1].References == nil {
		t.Error("missing references should decode as an empty list")
	}
	want := []graph.Edge{{Source: "Demo.add_comm", Target: "Demo.add", FromLean: true}}
	if len(g.Edges) != 1 || g.Edges[0] != want[0] {
		t.Errorf("edges = %+v, want %+v", g.Edges, want)
	}
}

func TestReadDeclarations_ExplicitEdges(t *testing.T) {
	in := `{
	  "nodes": [{"id": "a"}, {"id": "b", "references": ["a"]}],
	  "edges": [{"source": "a", "target": "b"}, {"source": "b", "target": "a", "from_lean": false}]
	}`
	g, err := ReadDeclarations(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadDeclarations: %v", err)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("edges = %d, want 2 (explicit edges replace references)", len(g.Edges))
	}
	if !g.Edges[0].FromLean || g.Edges[1].FromLean {
		t.Errorf("from_lean = %v/%v, want true/false", g.Edges[0].FromLean, g.Edges[1].FromLean)
	}
}

func TestReadDeclarations_EmptyEdgeList(t *testing.T) {
	g, err := ReadDeclarations(strings.NewReader(`{"nodes": [{"id": "a", "references": ["b"]}, {"id": "b"}], "edges": []}`))
	if err != nil {
		t.Fatalf("ReadDeclarations: %v", err)
	}
	if len(g.Edges) != 0 {
		t.Errorf("edges = %+v, want none", g.Edges)
	}
}

func TestReadDeclarations_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"nodes": [`},
		{"missing id", `{"nodes": [{"name": "x"}]}`},
		{"blank id", `{"nodes": [{"id": "  "}]}`},
		{"edge without target", `{"nodes": [{"id": "a"}], "edges": [{"source": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDeclarations(strings.NewReader(tt.in))
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestFileExtractor(t *testing.T) {
	root := t.TempDir()
	x := FileExtractor{}

	_, err := x.Extract(context.Background(), root)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("missing dump: err = %v, want NOT_FOUND", err)
	}

	path := x.DumpPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(sampleDump), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := x.Extract(context.Background(), root)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(g.Nodes))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := x.Extract(ctx, root); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFileExtractor_DumpPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", filepath.Join("/p", ".lake", "build", "astrolabe", "declarations.json")},
		{"out/decls.json", filepath.Join("/p", "out", "decls.json")},
		{"/abs/decls.json", "/abs/decls.json"},
	}
	for _, tt := range tests {
		if got := (FileExtractor{Path: tt.path}).DumpPath("/p"); got != tt.want {
			t.Errorf("DumpPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func cyclicStore(t *testing.T) *storage.Store {
	t.Helper()
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "a", Name: "a"}, {ID: "b", Name: "b"}, {ID: "c", Name: "c"}},
		Edges: []graph.Edge{
			{Source: "a", Target: "b", FromLean: true},
			{Source: "b", Target: "c", FromLean: true},
			{Source: "c", Target: "a", FromLean: true},
		},
	}
	logger := log.New(os.Stderr)
	logger.SetLevel(log.FatalLevel)
	return storage.Open(g, filepath.Join(t.TempDir(), "meta.json"), storage.Options{Logger: logger})
}

func TestBuild_Acyclic(t *testing.T) {
	s := cyclicStore(t)
	if _, err := s.AddUserEdge("a", "ghost", storage.EdgePatch{}); err != nil {
		t.Fatal(err)
	}

	full := Build(s, "Demo", ExportOptions{})
	if len(full.Edges) != 4 || full.RemovedEdges != nil {
		t.Fatalf("plain export: %d edges, removed %v", len(full.Edges), full.RemovedEdges)
	}

	e := Build(s, "Demo", ExportOptions{Acyclic: true})
	if len(e.RemovedEdges) != 1 {
		t.Fatalf("removed = %v, want exactly one back edge", e.RemovedEdges)
	}
	if len(e.Edges) != 3 {
		t.Errorf("edges = %d, want 3 (dangling user edge kept)", len(e.Edges))
	}
	for _, ed := range e.Edges {
		if ed.EdgeID == e.RemovedEdges[0] {
			t.Errorf("removed edge %s still exported", ed.EdgeID)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	s := cyclicStore(t)
	if err := s.UpdateNodeMeta("a", storage.NodePatch{Label: storage.Ptr("Start")}); err != nil {
		t.Fatal(err)
	}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	e := Build(s, "Demo", ExportOptions{Canvas: true, Now: func() time.Time { return fixed }})

	var buf bytes.Buffer
	if err := WriteJSON(e, &buf); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Version     string           `json:"version"`
		GeneratedAt time.Time        `json:"generated_at"`
		Nodes       []map[string]any `json:"nodes"`
		Edges       []map[string]any `json:"edges"`
		Canvas      map[string]any   `json:"canvas"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Version != ExportVersion || !doc.GeneratedAt.Equal(fixed) {
		t.Errorf("header = %q %v", doc.Version, doc.GeneratedAt)
	}
	if got := doc.Nodes[0]["meta"].(map[string]any)["label"]; got != "Start" {
		t.Errorf("label = %v, want Start", got)
	}
	if got := doc.Edges[0]["id"]; got != "a->b" {
		t.Errorf("edge id = %v, want a->b", got)
	}
	if doc.Canvas == nil {
		t.Error("canvas missing")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(Build(cyclicStore(t), "Demo", ExportOptions{}), path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export not written: %v", err)
	}

	bad := filepath.Join(path, "nested.json")
	if err := ExportJSON(Export{}, bad); !errors.Is(err, errors.ErrCodeIOFailure) {
		t.Errorf("err = %v, want IO_FAILURE", err)
	}
}

func TestWriteDOT(t *testing.T) {
	s := cyclicStore(t)
	if _, err := s.AddUserNode(storage.UserNodeSpec{ID: "note", Name: "Note"}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateEdgeMeta("a->b", storage.EdgePatch{Color: storage.Ptr("red"), Width: storage.Ptr(2.5)}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteDOT(Build(s, "Demo", ExportOptions{}), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"digraph G {",
		`"a" -> "b" [color="red", penwidth=2.5];`,
		`"b" -> "c";`,
		`"note" [label="Note", tooltip="custom", style="rounded,filled,dashed"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT missing %q\n%s", want, out)
		}
	}
}
