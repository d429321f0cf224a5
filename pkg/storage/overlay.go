package storage

import (
	"maps"
	"slices"

	"github.com/matzehuels/astrolabe/pkg/graph"
)

// OverlayVersion is written to every overlay file.
const OverlayVersion = "2.0"

// overlay is the on-disk format of the overlay file.
type overlay struct {
	Version string                `json:"version"`
	Nodes   map[string]*nodeEntry `json:"nodes"`
	Edges   map[string]*edgeEntry `json:"edges"`
	Canvas  *canvasBucket         `json:"canvas,omitempty"`

	// LegacyMigrated is set once the legacy canvas file has been folded in
	// and survives Clear, so the file is never migrated twice.
	LegacyMigrated bool `json:"legacy_migrated,omitempty"`
}

// nodeEntry is the overlay record of one node. Type, Name, Kind and
// References are only set for user-authored nodes.
type nodeEntry struct {
	NodeMeta
	Type       string   `json:"type,omitempty"`
	Name       string   `json:"name,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	References []string `json:"references,omitempty"`
}

func (e *nodeEntry) isUser() bool { return e != nil && e.Type == TypeUser }

func (e *nodeEntry) isZero() bool { return e.Type == "" && e.NodeMeta.IsZero() }

// edgeEntry is the overlay record of one edge. Type, Source and Target are
// only set for user-authored edges.
type edgeEntry struct {
	EdgeMeta
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

func (e *edgeEntry) isUser() bool { return e != nil && e.Type == TypeUser }

func (e *edgeEntry) isZero() bool { return e.Type == "" && e.EdgeMeta.IsZero() }

// canvasBucket holds positions and the stored viewport.
type canvasBucket struct {
	Positions map[string]Position `json:"positions"`
	Viewport  storedViewport      `json:"viewport"`
}

// storedViewport is the sparse, persisted form of [Viewport].
type storedViewport struct {
	CameraPosition *[3]float64 `json:"camera_position,omitempty"`
	CameraTarget   *[3]float64 `json:"camera_target,omitempty"`
	Zoom           *float64    `json:"zoom,omitempty"`
	SelectedNodeID *string     `json:"selected_node_id,omitempty"`
	SelectedEdgeID *string     `json:"selected_edge_id,omitempty"`
}

func (v storedViewport) isZero() bool {
	return v.CameraPosition == nil && v.CameraTarget == nil && v.Zoom == nil &&
		v.SelectedNodeID == nil && v.SelectedEdgeID == nil
}

func (v storedViewport) resolve() Viewport {
	out := DefaultViewport()
	if v.CameraPosition != nil {
		out.CameraPosition = *v.CameraPosition
	}
	if v.CameraTarget != nil {
		out.CameraTarget = *v.CameraTarget
	}
	if v.Zoom != nil {
		out.Zoom = *v.Zoom
	}
	if v.SelectedNodeID != nil {
		out.SelectedNodeID = *v.SelectedNodeID
	}
	if v.SelectedEdgeID != nil {
		out.SelectedEdgeID = *v.SelectedEdgeID
	}
	return out
}

func (v *storedViewport) apply(p ViewportPatch) {
	if p.CameraPosition != nil {
		v.CameraPosition = Ptr(*p.CameraPosition)
	}
	if p.CameraTarget != nil {
		v.CameraTarget = Ptr(*p.CameraTarget)
	}
	if p.Zoom != nil {
		v.Zoom = Ptr(*p.Zoom)
	}
	if p.SelectedNodeID != nil {
		v.SelectedNodeID = selection(*p.SelectedNodeID)
	}
	if p.SelectedEdgeID != nil {
		v.SelectedEdgeID = selection(*p.SelectedEdgeID)
	}
}

func selection(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func storeViewport(v Viewport) storedViewport {
	return storedViewport{
		CameraPosition: Ptr(v.CameraPosition),
		CameraTarget:   Ptr(v.CameraTarget),
		Zoom:           Ptr(v.Zoom),
		SelectedNodeID: selection(v.SelectedNodeID),
		SelectedEdgeID: selection(v.SelectedEdgeID),
	}
}

func newOverlay() *overlay {
	return &overlay{
		Version: OverlayVersion,
		Nodes:   map[string]*nodeEntry{},
		Edges:   map[string]*edgeEntry{},
	}
}

// normalize fills nil maps after decoding.
func (o *overlay) normalize() {
	if o.Nodes == nil {
		o.Nodes = map[string]*nodeEntry{}
	}
	if o.Edges == nil {
		o.Edges = map[string]*edgeEntry{}
	}
	maps.DeleteFunc(o.Nodes, func(_ string, e *nodeEntry) bool { return e == nil })
	maps.DeleteFunc(o.Edges, func(_ string, e *edgeEntry) bool { return e == nil })
	if o.Canvas != nil && o.Canvas.Positions == nil {
		o.Canvas.Positions = map[string]Position{}
	}
}

// hasCanvasData reports whether the overlay holds canvas state: a visible
// node, a position or a stored viewport field. An empty canvas bucket does
// not count.
func (o *overlay) hasCanvasData() bool {
	if o.Canvas != nil && (len(o.Canvas.Positions) > 0 || !o.Canvas.Viewport.isZero()) {
		return true
	}
	for _, e := range o.Nodes {
		if e.Visible {
			return true
		}
	}
	return false
}

// canvas returns the canvas bucket, creating it if absent.
func (o *overlay) canvas() *canvasBucket {
	if o.Canvas == nil {
		o.Canvas = &canvasBucket{Positions: map[string]Position{}}
	}
	return o.Canvas
}

func (o *overlay) node(id string) *nodeEntry {
	e, ok := o.Nodes[id]
	if !ok {
		e = &nodeEntry{}
		o.Nodes[id] = e
	}
	return e
}

func (o *overlay) edge(id string) *edgeEntry {
	e, ok := o.Edges[id]
	if !ok {
		e = &edgeEntry{}
		o.Edges[id] = e
	}
	return e
}

// prune drops entries left with no data.
func (o *overlay) prune(id string) {
	if e, ok := o.Nodes[id]; ok && e.isZero() {
		delete(o.Nodes, id)
	}
}

func (o *overlay) pruneEdge(id string) {
	if e, ok := o.Edges[id]; ok && e.isZero() {
		delete(o.Edges, id)
	}
}

func (o *overlay) visibleNodes() []string {
	ids := []string{}
	for id, e := range o.Nodes {
		if e.Visible {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (o *overlay) clone() *overlay {
	c := &overlay{
		Version:        o.Version,
		Nodes:          make(map[string]*nodeEntry, len(o.Nodes)),
		Edges:          make(map[string]*edgeEntry, len(o.Edges)),
		LegacyMigrated: o.LegacyMigrated,
	}
	for id, e := range o.Nodes {
		cp := *e
		cp.Tags = slices.Clone(e.Tags)
		cp.References = slices.Clone(e.References)
		c.Nodes[id] = &cp
	}
	for id, e := range o.Edges {
		cp := *e
		c.Edges[id] = &cp
	}
	if o.Canvas != nil {
		c.Canvas = &canvasBucket{
			Positions: maps.Clone(o.Canvas.Positions),
			Viewport:  o.Canvas.Viewport,
		}
		if c.Canvas.Positions == nil {
			c.Canvas.Positions = map[string]Position{}
		}
	}
	return c
}

func (e *nodeEntry) userNode(id string) graph.Node {
	refs := slices.Clone(e.References)
	if refs == nil {
		refs = []string{}
	}
	kind := e.Kind
	if kind == "" {
		kind = graph.KindCustom
	}
	return graph.Node{
		ID:         id,
		Name:       e.Name,
		Kind:       kind,
		References: refs,
		Status:     graph.StatusUnknown,
	}
}

// =============================================================================
// Legacy Canvas
// =============================================================================

// legacyCanvas is the read-only format of the old standalone canvas file.
type legacyCanvas struct {
	Version      string              `json:"version"`
	VisibleNodes []string            `json:"visible_nodes"`
	Positions    map[string]Position `json:"positions"`
	Viewport     storedViewport      `json:"viewport"`
}

// migrate folds legacy canvas data into o: every visible id gets an entry
// with visible=true, and positions and viewport are copied as they are.
// Existing node meta is preserved.
func (o *overlay) migrate(legacy legacyCanvas) {
	for _, id := range legacy.VisibleNodes {
		if id == "" {
			continue
		}
		o.node(id).Visible = true
	}
	c := o.canvas()
	maps.Copy(c.Positions, legacy.Positions)
	c.Viewport = legacy.Viewport
	o.LegacyMigrated = true
}
