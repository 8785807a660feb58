// Package graph provides the labeled undirected graph that productions rewrite.
//
// # Overview
//
// A [Graph] is a set of vertices keyed by non-negative integer identifiers,
// each carrying an opaque string label, plus a list of undirected edges.
// The engine assumes identifiers are contiguous from 0 right after
// [Canonicalize] or [Remap]; repeated rewriting may leave gaps, so nothing in
// this package requires contiguity except [Remap] itself.
//
// Edges are kept as a multiset: parallel edges and self-loops are stored as
// given and never deduplicated. A self-loop contributes 2 to its vertex's
// degree, so the sum of all degrees is always twice [Graph.EdgeCount].
//
// # Basic Usage
//
//	g := graph.New()
//	_ = g.AddVertex(0, "X")
//	_ = g.AddVertex(1, "b")
//	_ = g.AddEdge(0, 1)
//
//	id, ok := g.IndexOf("b") // 1, true
//
// # Label Index
//
// [Graph.IndexOf] resolves a label to a vertex identifier. Labels need not
// be unique; when several vertices share a label the one with the smallest
// identifier is returned. Production targets and embedding destinations are
// both resolved with this rule.
//
// # Canonicalization and Remapping
//
// [Canonicalize] turns a [Raw] graph with opaque string keys (as produced by
// DOT or JSON loaders) into a Graph with identifiers 0..n-1 assigned in the
// raw node order. [Remap] shifts a canonical graph into a disjoint identifier
// range while pinning vertex 0 (the anchor) to a chosen identifier, which is
// how a replacement subgraph is made collision-free before it is spliced into
// a host.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. A host graph is owned by
// the caller applying productions to it.
package graph
