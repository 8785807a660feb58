// Package pkg provides the core libraries for graphprod, a graph-production
// engine for labeled undirected graphs.
//
// # Overview
//
// A production replaces one labeled vertex of a host graph with a
// replacement graph and reattaches the dangling edges of the removed vertex
// through an embedding that maps neighbor labels to destination labels.
// After every application graphprod reports aggregate statistics of the
// result. The pkg directory is organized into four areas:
//
//  1. Domain logic: [graph], [production], [stats]
//  2. Serialization: [io]
//  3. Orchestration: [pipeline], [render], [cache]
//  4. Serving and persistence: [session], [api], [observability]
//
// # Architecture
//
//	graph file (JSON or DOT)     rule file (TOML)
//	         ↓                          ↓
//	     [io] package (decode, canonicalize)
//	         ↓
//	  [production] package (remap, union, reconnect)
//	         ↓
//	    [stats] package (counts, degrees, components)
//	         ↓
//	[render] package (DOT, SVG via Graphviz)
//
// # Quick Start
//
// Apply a production to a host graph:
//
//	import (
//	    "github.com/matzehuels/graphprod/pkg/io"
//	    "github.com/matzehuels/graphprod/pkg/production"
//	)
//
//	host, _ := io.LoadCanonical("A.dot")
//	rhs, _ := io.LoadCanonical("B.dot")
//	res, _ := production.Apply(host, "c", rhs, map[string]string{"a": "Y", "b": "c"})
//	fmt.Println(res.Stats.Vertices, res.Stats.Components)
//
// # Main Packages
//
// [graph] - Labeled undirected graph with integer identifiers, the label
// index, the identifier remapper and the canonicalizer that turns raw
// node-link or DOT input into identifiers 0..n-1.
//
// [production] - Rules and the production applier. Application is atomic:
// on error the host is unchanged.
//
// [stats] - Vertex and edge counts, connected components, average degree
// overall and per label, and average component size.
//
// [io] - Node-link JSON and DOT readers and writers, and TOML rule files.
//
// [pipeline] - The load → apply → render sequence shared by the CLI and
// the HTTP API, with content-hash caching of inputs and renders.
//
// [session] - Named host graphs with a step log, persisted in memory, on
// disk, in Redis or in MongoDB.
//
// [api] - HTTP API over a session store.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/production   # Specific package
//	go test -run Example       # Examples only
//
// Redis and MongoDB stores are exercised against live servers only when
// GRAPHPROD_REDIS_ADDR or GRAPHPROD_MONGO_URI is set.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/graph
// [production]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/production
// [stats]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/stats
// [io]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/session
// [api]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/api
// [observability]: https://pkg.go.dev/github.com/matzehuels/graphprod/pkg/observability
package pkg
