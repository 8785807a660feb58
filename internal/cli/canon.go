package cli

import (
	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/graphprod/pkg/io"
)

// canonCommand creates the canon command, which rewrites a JSON or DOT graph
// file as canonical node-link JSON.
func (c *CLI) canonCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "canon <file>",
		Short: "Canonicalize a graph file to node-link JSON",
		Long: `Canonicalize reads a graph in node-link JSON or DOT and assigns the
identifiers 0..n-1 in input order. Edges touching unknown keys are dropped.

Without -o the canonical JSON is written to stdout.`,
		Example: `  graphprod canon A.dot
  graphprod canon A.dot -o A.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := c.newRunner()
			defer runner.Close()

			g, hit, err := runner.LoadWithCacheInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if output == "" {
				return pkgio.WriteGraph(g, c.Out)
			}
			if err := pkgio.ExportGraph(g, output); err != nil {
				return err
			}
			printSuccess("Canonicalized %s", args[0])
			printGraphLine(g.VertexCount(), g.EdgeCount(), hit)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
