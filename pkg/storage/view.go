package storage

import (
	"slices"

	"github.com/matzehuels/astrolabe/pkg/graph"
)

// Node returns the merged view of one structural or user node.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.nodeIndex[id]; ok {
		return s.structuralNode(s.skeleton.Nodes[i]), true
	}
	if e := s.ov.Nodes[id]; e.isUser() {
		return s.userNodeView(s.ov, id, e), true
	}
	return Node{}, false
}

// Nodes returns every structural node in skeleton order, each joined with its
// overlay, followed by all user nodes sorted by id.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Node, 0, len(s.skeleton.Nodes))
	for _, n := range s.skeleton.Nodes {
		out = append(out, s.structuralNode(n))
	}
	for _, id := range sortedKeys(s.ov.Nodes) {
		e := s.ov.Nodes[id]
		if _, shadowed := s.nodeIndex[id]; e.isUser() && !shadowed {
			out = append(out, s.userNodeView(s.ov, id, e))
		}
	}
	return out
}

// Edges returns every structural edge in skeleton order, each joined with its
// overlay, followed by all user edges sorted by id.
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Edge, 0, len(s.skeleton.Edges))
	for _, e := range s.skeleton.Edges {
		id := e.ID()
		v := Edge{Edge: e, EdgeID: id}
		if entry, ok := s.ov.Edges[id]; ok {
			v.Meta = entry.EdgeMeta
		}
		out = append(out, v)
	}
	for _, id := range sortedKeys(s.ov.Edges) {
		e := s.ov.Edges[id]
		if _, shadowed := s.edgeIndex[id]; e.isUser() && !shadowed {
			out = append(out, userEdgeView(id, e))
		}
	}
	return out
}

// Graph returns the merged node and edge set as plain graph values, suitable
// for analysis or export.
func (s *Store) Graph() graph.Graph {
	nodes := s.Nodes()
	edges := s.Edges()
	g := graph.Graph{
		Nodes: make([]graph.Node, len(nodes)),
		Edges: make([]graph.Edge, len(edges)),
	}
	for i, n := range nodes {
		g.Nodes[i] = n.Node
	}
	for i, e := range edges {
		g.Edges[i] = e.Edge
	}
	return g
}

func (s *Store) structuralNode(n graph.Node) Node {
	v := Node{Node: n}
	v.References = slices.Clone(n.References)
	if e, ok := s.ov.Nodes[n.ID]; ok {
		v.Meta = e.NodeMeta
		v.Meta.Tags = slices.Clone(v.Meta.Tags)
	}
	if s.ov.Canvas != nil {
		if p, ok := s.ov.Canvas.Positions[n.ID]; ok {
			v.Position = &p
		}
	}
	return v
}
