// Package io reads and writes labeled graphs and production rule files.
//
// # Overview
//
// Graph loading and rule files are the boundary between the rewriting engine
// and the outside world. This package converts external descriptions into
// [graph.Raw] values (opaque keys, declaration order preserved) which callers
// canonicalize with [graph.Canonicalize], and serializes live graphs with
// their exact identifiers for snapshots and caches.
//
// # JSON Format
//
//	{
//	  "nodes": [
//	    {"id": 0, "label": "X"},
//	    {"id": 1, "label": "b"}
//	  ],
//	  "edges": [
//	    {"from": 0, "to": 1}
//	  ]
//	}
//
// Node ids may be numbers or strings when read as a raw graph ([ReadRaw]);
// [ReadGraph] requires non-negative integers and keeps them as-is. A node
// without a label is labeled with its id when canonicalized; [ReadGraph]
// keeps labels as written, so an empty label stays empty.
//
// # DOT Format
//
// [ReadDOT] parses Graphviz DOT via github.com/goccy/go-graphviz. Node names
// become raw keys and the label attribute becomes the vertex label. Edge
// direction is ignored.
//
// # Rule Files
//
// Productions are described in TOML:
//
//	name = "P1"
//	target = "X"
//	replacement = "B.dot"
//
//	[embedding]
//	a = "Y"
//	b = "c"
//
// The replacement path is resolved relative to the rule file. See [LoadRule].
package io
