package storage

import (
	"maps"

	"github.com/matzehuels/astrolabe/pkg/errors"
)

// Canvas assembles visible nodes, positions and viewport from the overlay,
// with defaults for everything missing. VisibleNodes is sorted.
func (s *Store) Canvas() Canvas {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := Canvas{
		VisibleNodes: s.ov.visibleNodes(),
		Positions:    map[string]Position{},
		Viewport:     DefaultViewport(),
	}
	if s.ov.Canvas != nil {
		maps.Copy(c.Positions, s.ov.Canvas.Positions)
		c.Viewport = s.ov.Canvas.Viewport.resolve()
	}
	return c
}

// NodePosition returns the stored position of id.
func (s *Store) NodePosition(id string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ov.Canvas == nil {
		return Position{}, false
	}
	p, ok := s.ov.Canvas.Positions[id]
	return p, ok
}

// Viewport returns the stored viewport with defaults for missing fields.
func (s *Store) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ov.Canvas == nil {
		return DefaultViewport()
	}
	return s.ov.Canvas.Viewport.resolve()
}

// SetVisibleNodes makes exactly ids visible. Duplicates are ignored.
func (s *Store) SetVisibleNodes(ids []string) error {
	if err := validateIDs(ids); err != nil {
		return err
	}
	return s.mutate("set_visible_nodes", func(ov *overlay) error {
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		for id, e := range ov.Nodes {
			if e.Visible && !want[id] {
				e.Visible = false
				ov.prune(id)
			}
		}
		for id := range want {
			ov.node(id).Visible = true
		}
		return nil
	})
}

// AddNodeToCanvas makes id visible.
func (s *Store) AddNodeToCanvas(id string) error {
	return s.AddNodesToCanvas([]string{id})
}

// AddNodesToCanvas makes every id in ids visible. Nodes already visible are
// left as they are.
func (s *Store) AddNodesToCanvas(ids []string) error {
	if err := validateIDs(ids); err != nil {
		return err
	}
	return s.mutate("add_nodes_to_canvas", func(ov *overlay) error {
		changed := false
		for _, id := range ids {
			if e := ov.node(id); !e.Visible {
				e.Visible = true
				changed = true
			}
		}
		if !changed {
			return errNoChange
		}
		return nil
	})
}

// RemoveNodeFromCanvas hides id and drops its stored position. It is a no-op
// if id is neither visible nor positioned.
func (s *Store) RemoveNodeFromCanvas(id string) error {
	return s.mutate("remove_node_from_canvas", func(ov *overlay) error {
		changed := false
		if e, ok := ov.Nodes[id]; ok && e.Visible {
			e.Visible = false
			ov.prune(id)
			changed = true
		}
		if ov.Canvas != nil {
			if _, ok := ov.Canvas.Positions[id]; ok {
				delete(ov.Canvas.Positions, id)
				changed = true
			}
		}
		if !changed {
			return errNoChange
		}
		return nil
	})
}

// ClearCanvas hides every node and drops all positions. The viewport is kept.
func (s *Store) ClearCanvas() error {
	return s.mutate("clear_canvas", func(ov *overlay) error {
		for id, e := range ov.Nodes {
			if e.Visible {
				e.Visible = false
				ov.prune(id)
			}
		}
		if ov.Canvas != nil {
			ov.Canvas.Positions = map[string]Position{}
		}
		return nil
	})
}

// SetPositions replaces all stored positions.
func (s *Store) SetPositions(positions map[string]Position) error {
	return s.mutate("set_positions", func(ov *overlay) error {
		ov.canvas().Positions = maps.Clone(positions)
		if ov.Canvas.Positions == nil {
			ov.Canvas.Positions = map[string]Position{}
		}
		return nil
	})
}

// UpdatePositions merges positions into the stored ones. Keys not in
// positions are untouched.
func (s *Store) UpdatePositions(positions map[string]Position) error {
	if len(positions) == 0 {
		return nil
	}
	return s.mutate("update_positions", func(ov *overlay) error {
		maps.Copy(ov.canvas().Positions, positions)
		return nil
	})
}

// SetViewport replaces the stored viewport.
func (s *Store) SetViewport(v Viewport) error {
	return s.mutate("set_viewport", func(ov *overlay) error {
		ov.canvas().Viewport = storeViewport(v)
		return nil
	})
}

// UpdateViewport merges patch into the stored viewport.
func (s *Store) UpdateViewport(patch ViewportPatch) error {
	return s.mutate("update_viewport", func(ov *overlay) error {
		ov.canvas().Viewport.apply(patch)
		return nil
	})
}

func validateIDs(ids []string) error {
	for _, id := range ids {
		if err := errors.ValidateNodeID(id); err != nil {
			return err
		}
	}
	return nil
}

// VisibleNodes returns the sorted ids of all visible nodes.
func (s *Store) VisibleNodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ov.visibleNodes()
}
