package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/astrolabe/pkg/errors"
	pkgio "github.com/matzehuels/astrolabe/pkg/io"
)

// Export formats.
const (
	formatJSON = "json"
	formatDOT  = "dot"
)

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output  string
		format  string
		acyclic bool
		canvas  bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the merged graph as JSON or Graphviz DOT",
		Long: `Write the merged graph: structural nodes and edges joined with their meta,
followed by user nodes and edges. The format is taken from --format, or from
the output file extension, and defaults to JSON on stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = formatFromPath(output)
			}
			if format != formatJSON && format != formatDOT {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want json or dot)", format)
			}

			h, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			e := pkgio.Build(h.Store, h.Project, pkgio.ExportOptions{Acyclic: acyclic, Canvas: canvas})
			if n := len(e.RemovedEdges); n > 0 {
				c.Logger.Info("dropped back edges", "count", n)
			}

			if output == "" {
				if format == formatDOT {
					return pkgio.WriteDOT(e, c.out.w)
				}
				return pkgio.WriteJSON(e, c.out.w)
			}

			if format == formatJSON {
				if err := pkgio.ExportJSON(e, output); err != nil {
					return err
				}
			} else if err := writeDOTFile(e, output); err != nil {
				return err
			}
			c.out.success("Exported %d nodes and %d edges", len(e.Nodes), len(e.Edges))
			c.out.file(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or dot")
	cmd.Flags().BoolVar(&acyclic, "acyclic", false, "drop back edges so the output has no cycle")
	cmd.Flags().BoolVar(&canvas, "canvas", false, "include the canvas state (JSON only)")
	return cmd
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot", ".gv":
		return formatDOT
	default:
		return formatJSON
	}
}

func writeDOTFile(e pkgio.Export, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "create %s", path)
	}
	if err := pkgio.WriteDOT(e, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIOFailure, err, "close %s", path)
	}
	return nil
}
