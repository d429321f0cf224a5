package storage

import (
	"slices"

	"github.com/matzehuels/astrolabe/pkg/graph"
)

// TypeUser tags overlay entries that describe user-authored nodes and edges.
const TypeUser = "custom"

// Viewport defaults.
var (
	DefaultCameraPosition = [3]float64{0, 0, 20}
	DefaultCameraTarget   = [3]float64{0, 0, 0}
)

// DefaultZoom is the zoom of a fresh viewport.
const DefaultZoom = 1.0

// =============================================================================
// Meta
// =============================================================================

// NodeMeta holds the user-editable presentation fields of a node. Zero values
// mean "default" and are not persisted.
type NodeMeta struct {
	Label   string   `json:"label,omitempty"`
	Color   string   `json:"color,omitempty"`
	Size    float64  `json:"size,omitempty"`
	Shape   string   `json:"shape,omitempty"`
	Effect  string   `json:"effect,omitempty"`
	Pinned  bool     `json:"pinned,omitempty"`
	Notes   string   `json:"notes,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Visible bool     `json:"visible,omitempty"`
}

// IsZero reports whether no field is set.
func (m NodeMeta) IsZero() bool {
	return m.Label == "" && m.Color == "" && m.Size == 0 && m.Shape == "" &&
		m.Effect == "" && !m.Pinned && m.Notes == "" && len(m.Tags) == 0 && !m.Visible
}

// EdgeMeta holds the user-editable presentation fields of an edge.
type EdgeMeta struct {
	Color  string  `json:"color,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Style  string  `json:"style,omitempty"`
	Effect string  `json:"effect,omitempty"`
	Notes  string  `json:"notes,omitempty"`
}

// IsZero reports whether no field is set.
func (m EdgeMeta) IsZero() bool {
	return m == EdgeMeta{}
}

// NodePatch is a partial update of [NodeMeta]. Nil fields are left untouched;
// a pointer to the zero value clears the field.
type NodePatch struct {
	Label   *string
	Color   *string
	Size    *float64
	Shape   *string
	Effect  *string
	Pinned  *bool
	Notes   *string
	Tags    *[]string
	Visible *bool
}

func (p NodePatch) apply(m *NodeMeta) {
	setIf(&m.Label, p.Label)
	setIf(&m.Color, p.Color)
	setIf(&m.Size, p.Size)
	setIf(&m.Shape, p.Shape)
	setIf(&m.Effect, p.Effect)
	setIf(&m.Pinned, p.Pinned)
	setIf(&m.Notes, p.Notes)
	if p.Tags != nil {
		m.Tags = slices.Clone(*p.Tags)
	}
	setIf(&m.Visible, p.Visible)
}

// EdgePatch is a partial update of [EdgeMeta].
type EdgePatch struct {
	Color  *string
	Width  *float64
	Style  *string
	Effect *string
	Notes  *string
}

func (p EdgePatch) apply(m *EdgeMeta) {
	setIf(&m.Color, p.Color)
	setIf(&m.Width, p.Width)
	setIf(&m.Style, p.Style)
	setIf(&m.Effect, p.Effect)
	setIf(&m.Notes, p.Notes)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Ptr returns a pointer to v. It is a convenience for building patches.
func Ptr[T any](v T) *T { return &v }

// =============================================================================
// Canvas
// =============================================================================

// Position is a node position in canvas space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Viewport is the camera and selection state of the canvas. Empty selection
// ids mean nothing is selected.
type Viewport struct {
	CameraPosition [3]float64 `json:"camera_position"`
	CameraTarget   [3]float64 `json:"camera_target"`
	Zoom           float64    `json:"zoom"`
	SelectedNodeID string     `json:"selected_node_id,omitempty"`
	SelectedEdgeID string     `json:"selected_edge_id,omitempty"`
}

// DefaultViewport returns the viewport of a fresh canvas.
func DefaultViewport() Viewport {
	return Viewport{
		CameraPosition: DefaultCameraPosition,
		CameraTarget:   DefaultCameraTarget,
		Zoom:           DefaultZoom,
	}
}

// ViewportPatch is a partial update of [Viewport]. Nil fields are left
// untouched. A pointer to "" clears a selection.
type ViewportPatch struct {
	CameraPosition *[3]float64
	CameraTarget   *[3]float64
	Zoom           *float64
	SelectedNodeID *string
	SelectedEdgeID *string
}

// Canvas is the assembled canvas state.
type Canvas struct {
	VisibleNodes []string            `json:"visible_nodes"`
	Positions    map[string]Position `json:"positions"`
	Viewport     Viewport            `json:"viewport"`
}

// =============================================================================
// Merged View
// =============================================================================

// Node is a structural or user-authored node joined with its overlay.
type Node struct {
	graph.Node
	Meta     NodeMeta  `json:"meta"`
	Position *Position `json:"position,omitempty"`
	User     bool      `json:"user"`
}

// Edge is a structural or user-authored edge joined with its overlay.
type Edge struct {
	graph.Edge
	EdgeID string   `json:"id"`
	Meta   EdgeMeta `json:"meta"`
	User   bool     `json:"user"`
}

// UserNodeSpec describes a node to create with [Store.AddUserNode].
type UserNodeSpec struct {
	// ID is optional. If empty, a unique "custom-<millis>" id is generated.
	ID         string
	Name       string
	Kind       string // defaults to graph.KindCustom
	References []string
	Meta       NodePatch
}

// UserNodeUpdate changes the structural fields of a user node. Nil fields are
// left untouched.
type UserNodeUpdate struct {
	Name       *string
	Kind       *string
	References *[]string
	Meta       NodePatch
}
