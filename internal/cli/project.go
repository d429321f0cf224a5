package cli

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/astrolabe/pkg/errors"
)

// resetCommand creates the reset command.
func (c *CLI) resetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all astrolabe data of the project",
		Long: `Delete the project's data directory: the graph snapshot, the overlay with
all meta, canvas state and user nodes and edges, and any legacy canvas file.
The next load extracts from scratch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := c.root()
			if err != nil {
				return err
			}
			dir := filepath.Join(root, c.cfg.DataDir)
			if !yes {
				c.out.warning("This deletes %s", dir)
				c.out.nextStep("Confirm with", "astrolabe reset --yes")
				return errors.New(errors.ErrCodeInvalidOperation, "reset not confirmed")
			}
			if err := c.projects(loadFlags{}).Reset(root); err != nil {
				return err
			}
			c.out.success("Reset %s", root)
			c.out.detail("Removed %s", dir)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

// recentCommand creates the recent command.
func (c *CLI) recentCommand() *cobra.Command {
	var (
		limit   int
		cleanup bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.sessions()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if cleanup {
				n, err := store.Cleanup(ctx)
				if err != nil {
					return err
				}
				c.Logger.Info("removed sessions of missing projects", "count", n)
			}

			list, err := store.List(ctx)
			if err != nil {
				return err
			}
			if limit > 0 && len(list) > limit {
				list = list[:limit]
			}
			if asJSON {
				return c.out.json(nonNil(list))
			}
			if len(list) == 0 {
				c.out.info("No recent projects")
				return nil
			}
			for _, s := range list {
				name := s.Project
				if name == "" {
					name = filepath.Base(s.Path)
				}
				c.out.keyValue(name, s.Path)
				c.out.detail("opened %s ago · %d opens", time.Since(s.OpenedAt).Round(time.Second), s.Opens)
			}
			c.out.detail("sessions in %s", store.Path())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of projects")
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "forget projects whose directory no longer exists")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
