package storage

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/graph"
)

// UserIDPrefix starts every generated user node id.
const UserIDPrefix = "custom-"

// IsUserNode reports whether id is a user-authored node.
func (s *Store) IsUserNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ov.Nodes[id].isUser()
}

// IsUserEdge reports whether id ("source->target") is a user-authored edge.
func (s *Store) IsUserEdge(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ov.Edges[id].isUser()
}

// nextUserID returns a fresh "custom-<millis>" id. Ids are strictly
// increasing within the store and skip any id already taken.
func (s *Store) nextUserID(ov *overlay) string {
	ms := max(s.now().UnixMilli(), s.lastID+1)
	for {
		id := fmt.Sprintf("%s%d", UserIDPrefix, ms)
		if _, taken := ov.Nodes[id]; !taken {
			if _, structural := s.nodeIndex[id]; !structural {
				s.lastID = ms
				return id
			}
		}
		ms++
	}
}

// AddUserNode creates a user-authored node together with its meta in one
// write and returns it. An id that already names a node is rejected.
func (s *Store) AddUserNode(spec UserNodeSpec) (Node, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return Node{}, errors.New(errors.ErrCodeInvalidInput, "user node name cannot be empty")
	}
	if spec.ID != "" {
		if err := errors.ValidateNodeID(spec.ID); err != nil {
			return Node{}, err
		}
	}
	if err := validateIDs(spec.References); err != nil {
		return Node{}, err
	}

	var created Node
	err := s.mutate("add_user_node", func(ov *overlay) error {
		id := spec.ID
		if id == "" {
			id = s.nextUserID(ov)
		} else if _, structural := s.nodeIndex[id]; structural {
			return errors.New(errors.ErrCodeInvalidOperation, "node %q is a structural node", id)
		} else if e, ok := ov.Nodes[id]; ok && e.isUser() {
			return errors.New(errors.ErrCodeInvalidInput, "user node %q already exists", id)
		}

		kind := spec.Kind
		if kind == "" {
			kind = graph.KindCustom
		}
		e := ov.node(id)
		e.Type = TypeUser
		e.Name = spec.Name
		e.Kind = kind
		e.References = dedupe(spec.References)
		spec.Meta.apply(&e.NodeMeta)

		created = s.userNodeView(ov, id, e)
		return nil
	})
	if err != nil {
		return Node{}, err
	}
	s.logger.Debug("added user node", "id", created.ID)
	return created, nil
}

// UpdateUserNode changes the name, kind, references or meta of a user node.
func (s *Store) UpdateUserNode(id string, u UserNodeUpdate) (Node, error) {
	var updated Node
	err := s.mutate("update_user_node", func(ov *overlay) error {
		e := ov.Nodes[id]
		if !e.isUser() {
			return errors.New(errors.ErrCodeInvalidOperation, "not a user node: %q", id)
		}
		if u.Name != nil {
			if strings.TrimSpace(*u.Name) == "" {
				return errors.New(errors.ErrCodeInvalidInput, "user node name cannot be empty")
			}
			e.Name = *u.Name
		}
		setIf(&e.Kind, u.Kind)
		if u.References != nil {
			if err := validateIDs(*u.References); err != nil {
				return err
			}
			e.References = dedupe(*u.References)
		}
		u.Meta.apply(&e.NodeMeta)
		updated = s.userNodeView(ov, id, e)
		return nil
	})
	return updated, err
}

// AddUserEdge creates a user-authored edge source->target with the given
// meta. Neither endpoint needs to exist in the structural skeleton.
func (s *Store) AddUserEdge(source, target string, meta EdgePatch) (Edge, error) {
	if err := errors.ValidateNodeID(source); err != nil {
		return Edge{}, err
	}
	if err := errors.ValidateNodeID(target); err != nil {
		return Edge{}, err
	}
	id := graph.EdgeID(source, target)

	var created Edge
	err := s.mutate("add_user_edge", func(ov *overlay) error {
		if _, structural := s.edgeIndex[id]; structural {
			return errors.New(errors.ErrCodeInvalidOperation, "edge %q is a structural edge", id)
		}
		if ov.Edges[id].isUser() {
			return errors.New(errors.ErrCodeInvalidInput, "user edge %q already exists", id)
		}
		e := ov.edge(id)
		e.Type = TypeUser
		e.Source = source
		e.Target = target
		meta.apply(&e.EdgeMeta)
		created = userEdgeView(id, e)
		return nil
	})
	if err != nil {
		return Edge{}, err
	}
	return created, nil
}

// DeleteNode removes a node's overlay.
//
// A user node is deleted outright: its entry and position go, every edge entry
// touching it is deleted, and its id is dropped from other user nodes'
// references and from the viewport selection. A structural node cannot be
// deleted; its meta, visibility and position are cleared instead and it stays
// in the graph.
func (s *Store) DeleteNode(id string) error {
	return s.mutate("delete_node", func(ov *overlay) error {
		e, inOverlay := ov.Nodes[id]
		_, structural := s.nodeIndex[id]
		if !inOverlay && !structural {
			return errors.New(errors.ErrCodeNotFound, "node %q not found", id)
		}

		delete(ov.Nodes, id)
		if ov.Canvas != nil {
			delete(ov.Canvas.Positions, id)
		}
		if !e.isUser() {
			return nil
		}

		for eid, edge := range ov.Edges {
			src, tgt := edge.Source, edge.Target
			if !edge.isUser() {
				src, tgt, _ = graph.ParseEdgeID(eid)
			}
			if src == id || tgt == id {
				delete(ov.Edges, eid)
				if ov.Canvas != nil && ptrEq(ov.Canvas.Viewport.SelectedEdgeID, eid) {
					ov.Canvas.Viewport.SelectedEdgeID = nil
				}
			}
		}
		for _, other := range ov.Nodes {
			if other.isUser() {
				other.References = slices.DeleteFunc(other.References, func(r string) bool { return r == id })
			}
		}
		if ov.Canvas != nil && ptrEq(ov.Canvas.Viewport.SelectedNodeID, id) {
			ov.Canvas.Viewport.SelectedNodeID = nil
		}
		return nil
	})
}

// DeleteEdge deletes a user-authored edge. Structural edges cannot be
// deleted and yield an INVALID_OPERATION error; clear their meta with
// [Store.ClearEdgeMeta] instead.
func (s *Store) DeleteEdge(id string) error {
	return s.mutate("delete_edge", func(ov *overlay) error {
		e, ok := ov.Edges[id]
		if ok && e.isUser() {
			delete(ov.Edges, id)
			if ov.Canvas != nil && ptrEq(ov.Canvas.Viewport.SelectedEdgeID, id) {
				ov.Canvas.Viewport.SelectedEdgeID = nil
			}
			return nil
		}
		if _, structural := s.edgeIndex[id]; structural || ok {
			return errors.New(errors.ErrCodeInvalidOperation, "cannot delete structural edge %q", id)
		}
		return errors.New(errors.ErrCodeNotFound, "edge %q not found", id)
	})
}

// UserNodes returns all user-authored nodes sorted by id.
func (s *Store) UserNodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Node
	for _, id := range sortedKeys(s.ov.Nodes) {
		if e := s.ov.Nodes[id]; e.isUser() {
			out = append(out, s.userNodeView(s.ov, id, e))
		}
	}
	return out
}

// UserEdges returns all user-authored edges sorted by id.
func (s *Store) UserEdges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Edge
	for _, id := range sortedKeys(s.ov.Edges) {
		if e := s.ov.Edges[id]; e.isUser() {
			out = append(out, userEdgeView(id, e))
		}
	}
	return out
}

func (s *Store) userNodeView(ov *overlay, id string, e *nodeEntry) Node {
	n := Node{Node: e.userNode(id), Meta: e.NodeMeta, User: true}
	n.Meta.Tags = slices.Clone(n.Meta.Tags)
	if ov.Canvas != nil {
		if p, ok := ov.Canvas.Positions[id]; ok {
			n.Position = &p
		}
	}
	return n
}

func userEdgeView(id string, e *edgeEntry) Edge {
	src, tgt := e.Source, e.Target
	if src == "" || tgt == "" {
		src, tgt, _ = graph.ParseEdgeID(id)
	}
	return Edge{
		Edge:   graph.Edge{Source: src, Target: tgt, FromLean: false},
		EdgeID: id,
		Meta:   e.EdgeMeta,
		User:   true,
	}
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func ptrEq(p *string, v string) bool { return p != nil && *p == v }

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
