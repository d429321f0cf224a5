package dag

import (
	"errors"
	"slices"
	"testing"
)

func build(t *testing.T, ids []string, edges [][2]string) *DAG {
	t.Helper()
	g := New(nil)
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(dup) = %v, want ErrDuplicateNodeID", err)
	}
	if n, _ := g.Node("a"); n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := build(t, []string{"a"}, nil)
	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown source) = %v", err)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown target) = %v", err)
	}
}

func TestParallelEdgesAndDegrees(t *testing.T) {
	g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"a", "b"}})
	if g.OutDegree("a") != 2 || g.InDegree("b") != 2 {
		t.Errorf("degrees = %d/%d, want 2/2", g.OutDegree("a"), g.InDegree("b"))
	}
	g.RemoveEdge("a", "b")
	if g.EdgeCount() != 0 || g.OutDegree("a") != 0 {
		t.Errorf("after RemoveEdge: edges=%d out=%d", g.EdgeCount(), g.OutDegree("a"))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		edges   [][2]string
		wantErr bool
	}{
		{"chain", [][2]string{{"a", "b"}, {"b", "c"}}, false},
		{"diamond", [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}, false},
		{"two-cycle", [][2]string{{"a", "b"}, {"b", "a"}}, true},
		{"self-loop", [][2]string{{"c", "c"}}, true},
		{"long cycle", [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "b"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, []string{"a", "b", "c", "d"}, tt.edges)
			err := g.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrGraphHasCycle) {
				t.Errorf("Validate() = %v, want ErrGraphHasCycle", err)
			}
		})
	}
}

func TestStronglyConnected(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		edges [][2]string
		want  [][]string
	}{
		{
			name: "empty",
			want: nil,
		},
		{
			name:  "acyclic",
			ids:   []string{"c", "b", "a"},
			edges: [][2]string{{"a", "b"}, {"b", "c"}},
			want:  [][]string{{"a"}, {"b"}, {"c"}},
		},
		{
			name:  "mutual recursion",
			ids:   []string{"a", "b", "z"},
			edges: [][2]string{{"a", "b"}, {"b", "a"}, {"a", "z"}},
			want:  [][]string{{"a", "b"}, {"z"}},
		},
		{
			name:  "two cycles joined by a bridge",
			ids:   []string{"a", "b", "c", "d"},
			edges: [][2]string{{"a", "b"}, {"b", "a"}, {"b", "c"}, {"c", "d"}, {"d", "c"}},
			want:  [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:  "self-loop",
			ids:   []string{"a"},
			edges: [][2]string{{"a", "a"}},
			want:  [][]string{{"a"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.ids, tt.edges)
			got := g.StronglyConnected()
			if !slices.EqualFunc(got, tt.want, slices.Equal[[]string]) {
				t.Errorf("StronglyConnected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStronglyConnectedIgnoresInsertionOrder(t *testing.T) {
	edges := [][2]string{{"x", "y"}, {"y", "z"}, {"z", "x"}, {"z", "w"}}
	forward := build(t, []string{"w", "x", "y", "z"}, edges)

	reversed := slices.Clone(edges)
	slices.Reverse(reversed)
	backward := build(t, []string{"z", "y", "x", "w"}, reversed)

	a, b := forward.StronglyConnected(), backward.StronglyConnected()
	if !slices.EqualFunc(a, b, slices.Equal[[]string]) {
		t.Errorf("components differ: %v vs %v", a, b)
	}
	idx := forward.ComponentIndex()
	if idx["x"] != idx["y"] || idx["y"] != idx["z"] || idx["w"] == idx["x"] {
		t.Errorf("ComponentIndex() = %v", idx)
	}
}
