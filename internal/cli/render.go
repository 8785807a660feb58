package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphprod/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output base path
	formats  string // comma-separated: svg, dot, json
	detailed bool   // identifiers, degrees and metadata in labels
	title    string // caption under the diagram
	refresh  bool   // bypass cached renders
}

// renderCommand creates the render command for drawing a graph file.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{formats: pipeline.FormatSVG}

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a graph file as SVG or DOT",
		Long: `Render draws a graph with Graphviz. Vertices are labeled with their
labels; --detailed adds identifiers, degrees and metadata.

SVG output is cached by graph content and options.`,
		Example: `  graphprod render A.dot
  graphprod render A.json -f svg,dot -o diagrams/a --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default input without extension)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", opts.formats, "output formats: svg, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show identifiers, degrees and metadata")
	cmd.Flags().StringVar(&opts.title, "title", "", "diagram title")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached renders")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts renderOpts) error {
	formats := parseFormats(opts.formats)
	if len(formats) == 0 {
		return fmt.Errorf("no output format given")
	}
	popts := pipeline.Options{
		Input:    input,
		Formats:  formats,
		Detailed: opts.detailed,
		Title:    opts.title,
		Refresh:  opts.refresh,
	}
	if err := popts.Validate(); err != nil {
		return err
	}

	runner := c.newRunner()
	defer runner.Close()

	g, err := runner.Load(cmd.Context(), input)
	if err != nil {
		return err
	}

	var spinner *Spinner
	if slices.Contains(formats, pipeline.FormatSVG) {
		spinner = newSpinner(cmd.Context(), "Rendering...")
		spinner.Start()
	}
	artifacts, hit, err := runner.RenderWithCacheInfo(cmd.Context(), g, popts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	paths, err := writeArtifacts(basePath(opts.output, input), formats, artifacts)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", input)
	printGraphLine(g.VertexCount(), g.EdgeCount(), hit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
