package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/graphprod/pkg/io"
	"github.com/matzehuels/graphprod/pkg/pipeline"
)

// applyOpts holds the command-line flags for the apply command.
type applyOpts struct {
	output   string
	formats  string
	detailed bool
	title    string
	refresh  bool
	asJSON   bool
}

// applyCommand creates the apply command: load a host graph, apply rule
// files in order, then report statistics and optionally write artifacts.
func (c *CLI) applyCommand() *cobra.Command {
	opts := applyOpts{}

	cmd := &cobra.Command{
		Use:   "apply <host> <rule.toml>...",
		Short: "Apply production rules to a host graph",
		Long: `Apply loads the host graph (JSON or DOT), applies each rule file in the
order given and prints one report row per step followed by the statistics
of the final graph.

Rule files are TOML:

  name        = "expand"
  target      = "c"
  replacement = "B.dot"   # relative to the rule file

  [embedding]
  a = "Y"
  b = "c"

Processing stops at the first failing rule.`,
		Example: `  graphprod apply A.dot expand.toml
  graphprod apply A.dot expand.toml again.toml -f json,svg -o out/result
  graphprod apply A.dot expand.toml --json > result.json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runApply(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default <host>.out)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "artifacts to write: json, dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show identifiers, degrees and metadata in diagrams")
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached inputs and renders")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "write the resulting graph as JSON to stdout")

	return cmd
}

func (c *CLI) runApply(cmd *cobra.Command, host string, rules []string, opts applyOpts) error {
	runner := c.newRunner()
	defer runner.Close()

	formats := parseFormats(opts.formats)
	popts := pipeline.Options{
		Input:    host,
		Rules:    rules,
		Formats:  formats,
		Detailed: opts.detailed,
		Title:    opts.title,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	}

	c.Logger.Debug("applying productions", "host", host, "rules", len(rules), "formats", formats)
	prog := newProgress(c.Logger)
	var spinner *Spinner
	if slices.Contains(formats, pipeline.FormatSVG) && !opts.asJSON {
		spinner = newSpinner(cmd.Context(), "Rendering...")
		spinner.Start()
	}
	result, err := runner.Execute(cmd.Context(), popts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done("Applied %s", productions(len(result.Steps)))

	if opts.asJSON {
		return pkgio.WriteGraph(result.Graph, c.Out)
	}

	fmt.Fprintln(c.Out, stepsTable(result.Steps))
	for _, st := range result.Steps {
		if n := st.Result.Dropped(); n > 0 {
			printWarning("%s dropped %d dangling edges", st.Rule.Name, n)
		}
	}
	fmt.Fprintln(c.Out, statsTable(result.Stats))

	if len(result.Artifacts) == 0 {
		return nil
	}
	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(host, filepath.Ext(host)) + ".out"
	} else {
		base = basePath(base, host)
	}
	paths, err := writeArtifacts(base, formats, result.Artifacts)
	if err != nil {
		return err
	}
	printSuccess("Wrote %d artifacts", len(paths))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes each artifact to base.<format> in the order of
// formats and returns the written paths.
func writeArtifacts(base string, formats []string, artifacts map[string][]byte) ([]string, error) {
	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
