package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/astrolabe/pkg/cache"
	"github.com/matzehuels/astrolabe/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the graph snapshot of the project",
	}

	cmd.AddCommand(c.cacheStatusCommand())
	cmd.AddCommand(c.cacheHashCommand())
	cmd.AddCommand(c.cacheInvalidateCommand())
	cmd.AddCommand(c.cachePositionsCommand())

	return cmd
}

// cacheStatusCommand creates the "cache status" subcommand.
func (c *CLI) cacheStatusCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the snapshot is usable and why not",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gc, err := c.graphCache()
			if err != nil {
				return err
			}
			st := gc.Status()
			if asJSON {
				return c.out.json(st)
			}

			if st.Valid {
				c.out.success("Snapshot is valid")
			} else {
				c.out.warning("Snapshot miss: %s", st.Reason)
			}
			c.out.keyValue("project", gc.ProjectName())
			c.out.keyValue("path", st.Path)
			c.out.keyValue("version", orDash(st.Version))
			c.out.keyValue("generated", orDash(st.GeneratedAt))
			c.out.keyValue("nodes", fmt.Sprint(st.Nodes))
			c.out.keyValue("edges", fmt.Sprint(st.Edges))
			c.out.keyValue("stored hash", orDash(st.StoredHash))
			c.out.keyValue("current hash", orDash(st.CurrentHash))
			c.out.keyValue("artifacts", fmt.Sprint(st.Artifacts))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// cacheHashCommand creates the "cache hash" subcommand.
func (c *CLI) cacheHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print the hash of the current build artifacts",
		Long:  "Print the hash of the current build artifacts. It is empty when no .ilean file is found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gc, err := c.graphCache()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out.w, gc.ComputeHash())
			return nil
		},
	}
}

// cacheInvalidateCommand creates the "cache invalidate" subcommand.
func (c *CLI) cacheInvalidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate",
		Short: "Delete the snapshot so the next load re-extracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gc, err := c.graphCache()
			if err != nil {
				return err
			}
			if err := gc.Invalidate(); err != nil {
				return err
			}
			c.out.success("Snapshot invalidated")
			c.out.detail("Path: %s", gc.Path())
			return nil
		},
	}
}

// cachePositionsCommand creates the "cache positions" subcommand for the 2D
// positions older clients kept inside the snapshot file.
func (c *CLI) cachePositionsCommand() *cobra.Command {
	var set []string
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Show or merge the legacy 2D positions stored in the snapshot",
		Example: `  astrolabe cache positions
  astrolabe cache positions --set Demo.add=10,20 --set Demo.add_comm=0,5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gc, err := c.graphCache()
			if err != nil {
				return err
			}
			if len(set) > 0 {
				update := make(map[string]cache.Position2D, len(set))
				for _, s := range set {
					id, p, err := parsePosition2D(s)
					if err != nil {
						return err
					}
					update[id] = p
				}
				if err := gc.UpdatePositions(update); err != nil {
					return err
				}
			}
			return c.out.json(gc.GetPositions())
		},
	}
	cmd.Flags().StringArrayVar(&set, "set", nil, "merge a position, as id=x,y (repeatable)")
	return cmd
}

func parsePosition2D(s string) (string, cache.Position2D, error) {
	id, xy, ok := strings.Cut(s, "=")
	xs, ys, ok2 := strings.Cut(xy, ",")
	if !ok || !ok2 || id == "" {
		return "", cache.Position2D{}, errors.New(errors.ErrCodeInvalidInput, "position %q: want id=x,y", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return "", cache.Position2D{}, errors.New(errors.ErrCodeInvalidInput, "position %q: coordinates must be numbers", s)
	}
	return id, cache.Position2D{X: x, Y: y}, nil
}
