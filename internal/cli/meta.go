package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/graph"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

// metaCommand creates the meta command group. An id containing "->" names an
// edge; anything else names a node.
func (c *CLI) metaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Show and edit node and edge styling",
		Long: `Show and edit the presentation meta of nodes and edges. An id of the form
"source->target" names an edge; anything else names a node.`,
	}

	cmd.AddCommand(c.metaShowCommand())
	cmd.AddCommand(c.metaSetCommand())
	cmd.AddCommand(c.metaClearCommand())

	return cmd
}

func isEdgeID(id string) bool {
	_, _, ok := graph.ParseEdgeID(id)
	return ok
}

func (c *CLI) metaShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the merged node or edge with its meta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if isEdgeID(id) {
				for _, e := range h.Store.Edges() {
					if e.EdgeID == id {
						return c.out.json(e)
					}
				}
				return errors.New(errors.ErrCodeNotFound, "edge %q not found", id)
			}
			n, ok := h.Store.Node(id)
			if !ok {
				return errors.New(errors.ErrCodeNotFound, "node %q not found", id)
			}
			return c.out.json(n)
		},
	}
}

// styleFlags holds the flag values of "meta set" and "user add-*".
type styleFlags struct {
	label, color, shape, effect, notes, style string
	size, width                               float64
	pinned, visible                           bool
	tags                                      []string
}

func (f *styleFlags) registerNode(fs *pflag.FlagSet) {
	fs.StringVar(&f.label, "label", "", "display label")
	fs.StringVar(&f.color, "color", "", "color, e.g. #ff8800")
	fs.Float64Var(&f.size, "size", 0, "node size")
	fs.StringVar(&f.shape, "shape", "", "node shape")
	fs.StringVar(&f.effect, "effect", "", "visual effect")
	fs.BoolVar(&f.pinned, "pinned", false, "pin the node in place")
	fs.StringVar(&f.notes, "notes", "", "free-form notes")
	fs.StringSliceVar(&f.tags, "tags", nil, "comma-separated tags")
	fs.BoolVar(&f.visible, "visible", false, "show the node on the canvas")
}

func (f *styleFlags) registerEdge(fs *pflag.FlagSet) {
	if fs.Lookup("color") == nil {
		fs.StringVar(&f.color, "color", "", "color, e.g. #ff8800")
	}
	if fs.Lookup("effect") == nil {
		fs.StringVar(&f.effect, "effect", "", "visual effect")
	}
	if fs.Lookup("notes") == nil {
		fs.StringVar(&f.notes, "notes", "", "free-form notes")
	}
	fs.Float64Var(&f.width, "width", 0, "edge width")
	fs.StringVar(&f.style, "style", "", "edge style, e.g. dashed")
}

// nodePatch builds a patch from the flags that were given. A flag given with
// an empty value clears the field.
func (f *styleFlags) nodePatch(fs *pflag.FlagSet) storage.NodePatch {
	var p storage.NodePatch
	set := func(name string) bool { return fs.Changed(name) }
	if set("label") {
		p.Label = &f.label
	}
	if set("color") {
		p.Color = &f.color
	}
	if set("size") {
		p.Size = &f.size
	}
	if set("shape") {
		p.Shape = &f.shape
	}
	if set("effect") {
		p.Effect = &f.effect
	}
	if set("pinned") {
		p.Pinned = &f.pinned
	}
	if set("notes") {
		p.Notes = &f.notes
	}
	if set("tags") {
		p.Tags = &f.tags
	}
	if set("visible") {
		p.Visible = &f.visible
	}
	return p
}

func (f *styleFlags) edgePatch(fs *pflag.FlagSet) storage.EdgePatch {
	var p storage.EdgePatch
	if fs.Changed("color") {
		p.Color = &f.color
	}
	if fs.Changed("width") {
		p.Width = &f.width
	}
	if fs.Changed("style") {
		p.Style = &f.style
	}
	if fs.Changed("effect") {
		p.Effect = &f.effect
	}
	if fs.Changed("notes") {
		p.Notes = &f.notes
	}
	return p
}

func (c *CLI) metaSetCommand() *cobra.Command {
	var f styleFlags
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Merge the given fields into the meta of a node or edge",
		Long: `Merge the given fields into the meta of a node or edge. Fields not given are
left untouched; a field given with an empty value is cleared.`,
		Example: `  astrolabe meta set Demo.add_comm --color "#ff8800" --tags algebra,core
  astrolabe meta set "Demo.add_comm->Demo.add" --style dashed --width 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			fs := cmd.Flags()
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if isEdgeID(id) {
				for _, name := range []string{"label", "size", "shape", "pinned", "tags", "visible"} {
					if fs.Changed(name) {
						return errors.New(errors.ErrCodeInvalidInput, "--%s does not apply to edges", name)
					}
				}
				err = h.Store.UpdateEdgeMeta(id, f.edgePatch(fs))
			} else {
				for _, name := range []string{"width", "style"} {
					if fs.Changed(name) {
						return errors.New(errors.ErrCodeInvalidInput, "--%s does not apply to nodes", name)
					}
				}
				err = h.Store.UpdateNodeMeta(id, f.nodePatch(fs))
			}
			if err != nil {
				return err
			}
			c.out.success("Updated %s", StyleHighlight.Render(id))
			return nil
		},
	}
	f.registerNode(cmd.Flags())
	f.registerEdge(cmd.Flags())
	return cmd
}

func (c *CLI) metaClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Reset the meta of a node or edge",
		Long:  "Reset the meta of a node or edge. Node visibility and user-authored entities are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if isEdgeID(id) {
				err = h.Store.ClearEdgeMeta(id)
			} else {
				err = h.Store.ClearNodeMeta(id)
			}
			if err != nil {
				return err
			}
			c.out.success("Cleared meta of %s", StyleHighlight.Render(id))
			return nil
		},
	}
}
