// Package render draws labeled graphs as node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a [graph.Graph] into Graphviz DOT source for an undirected
// diagram where every vertex shows its label. [RenderSVG] lays the DOT out
// in-process with Graphviz and returns SVG bytes.
//
//	dot := render.ToDOT(g, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: labels also show the vertex identifier, degree and metadata.
//   - Title: optional graph label drawn under the diagram.
//
// # Dependencies
//
// SVG layout uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is required.
//
// [graph.Graph]: github.com/matzehuels/graphprod/pkg/graph
package render
