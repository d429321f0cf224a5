package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/astrolabe/pkg/storage"
)

// userCommand creates the user command group for user-authored nodes and
// edges.
func (c *CLI) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user-authored nodes and edges",
	}

	cmd.AddCommand(c.userAddNodeCommand())
	cmd.AddCommand(c.userUpdateNodeCommand())
	cmd.AddCommand(c.userAddEdgeCommand())
	cmd.AddCommand(c.userListCommand())
	cmd.AddCommand(c.userDeleteNodeCommand())
	cmd.AddCommand(c.userDeleteEdgeCommand())

	return cmd
}

func (c *CLI) userAddNodeCommand() *cobra.Command {
	var (
		spec storage.UserNodeSpec
		f    styleFlags
	)
	cmd := &cobra.Command{
		Use:   "add-node <name>",
		Short: "Create a node that is not part of the compiled project",
		Long: `Create a user node. Without --id a unique "custom-<millis>" id is generated.
References may name structural or user nodes.`,
		Example: `  astrolabe user add-node "Main goal" --ref Demo.add_comm --color "#ffcc00" --visible`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Name = args[0]
			spec.Meta = f.nodePatch(cmd.Flags())
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := h.Store.AddUserNode(spec)
			if err != nil {
				return err
			}
			c.out.success("Created %s", StyleHighlight.Render(n.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&spec.ID, "id", "", "node id (default generated)")
	cmd.Flags().StringVar(&spec.Kind, "kind", "", "node kind (default custom)")
	cmd.Flags().StringSliceVar(&spec.References, "ref", nil, "referenced node id (repeatable)")
	f.registerNode(cmd.Flags())
	return cmd
}

func (c *CLI) userUpdateNodeCommand() *cobra.Command {
	var (
		name, kind string
		refs       []string
		f          styleFlags
	)
	cmd := &cobra.Command{
		Use:   "update-node <id>",
		Short: "Change the name, kind, references or meta of a user node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			u := storage.UserNodeUpdate{Meta: f.nodePatch(fs)}
			if fs.Changed("name") {
				u.Name = &name
			}
			if fs.Changed("kind") {
				u.Kind = &kind
			}
			if fs.Changed("ref") {
				u.References = &refs
			}
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := h.Store.UpdateUserNode(args[0], u)
			if err != nil {
				return err
			}
			c.out.success("Updated %s", StyleHighlight.Render(n.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&kind, "kind", "", "new kind")
	cmd.Flags().StringSliceVar(&refs, "ref", nil, "replace references (repeatable)")
	f.registerNode(cmd.Flags())
	return cmd
}

func (c *CLI) userAddEdgeCommand() *cobra.Command {
	var f styleFlags
	cmd := &cobra.Command{
		Use:   "add-edge <source> <target>",
		Short: "Create an edge between any two node ids",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			e, err := h.Store.AddUserEdge(args[0], args[1], f.edgePatch(cmd.Flags()))
			if err != nil {
				return err
			}
			c.out.success("Created %s", StyleHighlight.Render(e.EdgeID))
			return nil
		},
	}
	f.registerEdge(cmd.Flags())
	return cmd
}

func (c *CLI) userListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user nodes and edges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			nodes, edges := h.Store.UserNodes(), h.Store.UserEdges()
			if asJSON {
				return c.out.json(struct {
					Nodes []storage.Node `json:"nodes"`
					Edges []storage.Edge `json:"edges"`
				}{nonNil(nodes), nonNil(edges)})
			}

			c.out.title(fmt.Sprintf("%d user nodes", len(nodes)))
			for _, n := range nodes {
				c.out.keyValue(n.ID, n.Name)
				if len(n.References) > 0 {
					c.out.detail("references %s", strings.Join(n.References, ", "))
				}
			}
			c.out.title(fmt.Sprintf("%d user edges", len(edges)))
			for _, e := range edges {
				c.out.keyValue(e.EdgeID, e.Meta.Style)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (c *CLI) userDeleteNodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-node <id>",
		Short: "Delete a user node, or reset the overlay of a structural node",
		Long: `Delete a user node together with its edges and the references to it from
other user nodes. A structural node cannot be deleted: its meta, visibility
and position are cleared and it stays in the graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			user := h.Store.IsUserNode(args[0])
			if err := h.Store.DeleteNode(args[0]); err != nil {
				return err
			}
			if user {
				c.out.success("Deleted %s", StyleHighlight.Render(args[0]))
			} else {
				c.out.info("%s is structural; its overlay was reset", StyleHighlight.Render(args[0]))
			}
			return nil
		},
	}
}

func (c *CLI) userDeleteEdgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-edge <source->target>",
		Short: "Delete a user edge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := h.Store.DeleteEdge(args[0]); err != nil {
				return err
			}
			c.out.success("Deleted %s", StyleHighlight.Render(args[0]))
			return nil
		},
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
