package storage

import (
	"slices"

	"github.com/matzehuels/astrolabe/pkg/errors"
)

// NodeMeta returns the stored meta of id, or a zero NodeMeta.
func (s *Store) NodeMeta(id string) NodeMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.ov.Nodes[id]
	if !ok {
		return NodeMeta{}
	}
	m := e.NodeMeta
	m.Tags = slices.Clone(m.Tags)
	return m
}

// EdgeMeta returns the stored meta of the edge with the given id
// ("source->target"), or a zero EdgeMeta.
func (s *Store) EdgeMeta(id string) EdgeMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.ov.Edges[id]; ok {
		return e.EdgeMeta
	}
	return EdgeMeta{}
}

// UpdateNodeMeta merges patch into the meta of id, creating the entry if
// needed. Fields not set in patch are untouched.
func (s *Store) UpdateNodeMeta(id string, patch NodePatch) error {
	if err := errors.ValidateNodeID(id); err != nil {
		return err
	}
	return s.mutate("update_node_meta", func(ov *overlay) error {
		patch.apply(&ov.node(id).NodeMeta)
		if patch.Visible != nil && !*patch.Visible && ov.Canvas != nil {
			delete(ov.Canvas.Positions, id)
		}
		ov.prune(id)
		return nil
	})
}

// UpdateEdgeMeta merges patch into the meta of the edge id ("source->target").
func (s *Store) UpdateEdgeMeta(id string, patch EdgePatch) error {
	if err := errors.ValidateEdgeID(id); err != nil {
		return err
	}
	return s.mutate("update_edge_meta", func(ov *overlay) error {
		patch.apply(&ov.edge(id).EdgeMeta)
		ov.pruneEdge(id)
		return nil
	})
}

// ClearNodeMeta resets the presentation meta of id. Visibility and, for user
// nodes, the node itself are kept.
func (s *Store) ClearNodeMeta(id string) error {
	return s.mutate("clear_node_meta", func(ov *overlay) error {
		e, ok := ov.Nodes[id]
		if !ok {
			return errNoChange
		}
		e.NodeMeta = NodeMeta{Visible: e.Visible}
		ov.prune(id)
		return nil
	})
}

// ClearEdgeMeta resets the presentation meta of an edge. A user edge itself
// is kept.
func (s *Store) ClearEdgeMeta(id string) error {
	return s.mutate("clear_edge_meta", func(ov *overlay) error {
		e, ok := ov.Edges[id]
		if !ok {
			return errNoChange
		}
		e.EdgeMeta = EdgeMeta{}
		ov.pruneEdge(id)
		return nil
	})
}
