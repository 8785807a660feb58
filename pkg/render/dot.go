package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphprod/pkg/graph"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the vertex identifier, degree and metadata to labels.
	// When false, only the vertex label is shown.
	Detailed bool
	// Title is drawn as the graph label when non-empty.
	Title string
}

// ToDOT converts a graph to undirected Graphviz DOT source.
// Vertices are emitted in ascending identifier order and edges in insertion
// order, so equal graphs produce identical output.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", opts.Title)
	}
	buf.WriteString("\n")

	for _, v := range g.Vertices() {
		fmt.Fprintf(&buf, "  %d [label=%q];\n", v.ID, fmtLabel(g, v, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %d -- %d;\n", e.U, e.V)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(g *graph.Graph, v *graph.Vertex, detailed bool) string {
	if !detailed {
		return v.Label
	}

	parts := []string{fmt.Sprintf("id: %d", v.ID), fmt.Sprintf("degree: %d", g.Degree(v.ID))}
	for _, k := range slices.Sorted(maps.Keys(v.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, v.Meta[k]))
	}
	return v.Label + "\n" + strings.Join(parts, "\n")
}

// RenderSVG lays out DOT source with Graphviz and returns SVG bytes.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// Graph is ToDOT followed by RenderSVG.
func Graph(ctx context.Context, g *graph.Graph, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(g, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales from a
// zero-origin viewBox instead of Graphviz's point-based width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
