package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphprod/pkg/stats"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Print statistics of a graph file",
		Example: `  graphprod stats A.dot
  graphprod stats A.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := c.newRunner()
			defer runner.Close()

			g, err := runner.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s, err := stats.Compute(g)
			if err != nil {
				return err
			}
			return c.writeStats(s, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")
	return cmd
}

// writeStats prints s as a table, or as one JSON object when asJSON is set.
func (c *CLI) writeStats(s stats.Statistics, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.Out, string(data))
		return err
	}
	_, err := fmt.Fprintln(c.Out, statsTable(s))
	return err
}
