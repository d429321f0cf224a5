package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/astrolabe/pkg/errors"
	"github.com/matzehuels/astrolabe/pkg/storage"
)

// canvasCommand creates the canvas command group.
func (c *CLI) canvasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvas",
		Short: "Show and edit which nodes are on the canvas",
	}

	cmd.AddCommand(c.canvasShowCommand())
	cmd.AddCommand(c.canvasAddCommand())
	cmd.AddCommand(c.canvasRemoveCommand())
	cmd.AddCommand(c.canvasClearCommand())
	cmd.AddCommand(c.canvasMoveCommand())
	cmd.AddCommand(c.canvasViewportCommand())
	cmd.AddCommand(c.canvasCleanupCommand())

	return cmd
}

func (c *CLI) canvasShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print visible nodes, positions and viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			cv := h.Store.Canvas()
			if asJSON {
				return c.out.json(cv)
			}

			c.out.title(fmt.Sprintf("%d visible nodes", len(cv.VisibleNodes)))
			for _, id := range cv.VisibleNodes {
				if p, ok := cv.Positions[id]; ok {
					c.out.keyValue(id, fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z))
				} else {
					c.out.keyValue(id, StyleDim.Render("unplaced"))
				}
			}
			v := cv.Viewport
			c.out.info("viewport")
			c.out.detail("camera %v → %v, zoom %g", v.CameraPosition, v.CameraTarget, v.Zoom)
			if v.SelectedNodeID != "" {
				c.out.detail("selected node %s", v.SelectedNodeID)
			}
			if v.SelectedEdgeID != "" {
				c.out.detail("selected edge %s", v.SelectedEdgeID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) canvasAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <node-id>...",
		Short: "Make nodes visible",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := h.Store.AddNodesToCanvas(args); err != nil {
				return err
			}
			c.out.success("Added %d node(s) to the canvas", len(args))
			return nil
		},
	}
}

func (c *CLI) canvasRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <node-id>",
		Short: "Hide a node and forget its position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := h.Store.RemoveNodeFromCanvas(args[0]); err != nil {
				return err
			}
			c.out.success("Removed %s from the canvas", StyleHighlight.Render(args[0]))
			return nil
		},
	}
}

func (c *CLI) canvasClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Hide every node and drop all positions; the viewport is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := h.Store.ClearCanvas(); err != nil {
				return err
			}
			c.out.success("Canvas cleared")
			return nil
		},
	}
}

func (c *CLI) canvasMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <node-id> <x> <y> [z]",
		Short: "Set the position of a node",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var xyz [3]float64
			for i, a := range args[1:] {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidInput, err, "coordinate %q", a)
				}
				xyz[i] = v
			}
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			pos := storage.Position{X: xyz[0], Y: xyz[1], Z: xyz[2]}
			if err := h.Store.UpdatePositions(map[string]storage.Position{args[0]: pos}); err != nil {
				return err
			}
			c.out.success("Moved %s", StyleHighlight.Render(args[0]))
			return nil
		},
	}
}

func (c *CLI) canvasViewportCommand() *cobra.Command {
	var (
		zoom       float64
		selectNode string
		selectEdge string
	)
	cmd := &cobra.Command{
		Use:   "viewport",
		Short: "Change zoom or selection",
		Long: `Change zoom or selection. Flags that are not given are left untouched;
pass an empty value to clear a selection, e.g. --select-node "".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch storage.ViewportPatch
			flags := cmd.Flags()
			if flags.Changed("zoom") {
				patch.Zoom = &zoom
			}
			if flags.Changed("select-node") {
				patch.SelectedNodeID = &selectNode
			}
			if flags.Changed("select-edge") {
				patch.SelectedEdgeID = &selectEdge
			}

			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := h.Store.UpdateViewport(patch); err != nil {
				return err
			}
			c.out.success("Viewport updated")
			return nil
		},
	}
	cmd.Flags().Float64Var(&zoom, "zoom", storage.DefaultZoom, "zoom factor")
	cmd.Flags().StringVar(&selectNode, "select-node", "", "selected node id")
	cmd.Flags().StringVar(&selectEdge, "select-edge", "", "selected edge id")
	return cmd
}

func (c *CLI) canvasCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-legacy",
		Short: "Delete the legacy canvas.json once its data has been migrated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := h.Store.CleanupOldCanvas(); err != nil {
				return err
			}
			c.out.success("Legacy canvas file removed")
			return nil
		},
	}
}
