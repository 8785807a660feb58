package graph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidVertexID is returned by [Graph.AddVertex] when the identifier
	// is negative.
	ErrInvalidVertexID = errors.New("vertex ID must not be negative")

	// ErrDuplicateVertex is returned by [Graph.AddVertex] when a vertex with the
	// same identifier already exists.
	ErrDuplicateVertex = errors.New("duplicate vertex ID")

	// ErrUnknownVertex is returned when an operation references a vertex that
	// does not exist.
	ErrUnknownVertex = errors.New("unknown vertex")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a vertex that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrNotContiguous is returned by [Remap] when the identifiers of the input
	// graph are not exactly 0..n-1.
	ErrNotContiguous = errors.New("vertex IDs are not contiguous from 0")
)

// Metadata stores arbitrary key-value pairs attached to a vertex, such as
// extra DOT attributes. It travels with the vertex through canonicalization
// and remapping but is ignored by the rewriting algorithm.
type Metadata map[string]any

// Vertex is a labeled node of the graph.
type Vertex struct {
	ID    int      // Unique non-negative identifier
	Label string   // Opaque label; not required to be unique
	Meta  Metadata // Never nil after AddVertex
}

// Edge is an undirected connection between two existing vertices.
// U and V are stored in insertion order; use [Edge.Key] for comparisons.
type Edge struct {
	U int
	V int
}

// Key returns the edge with the smaller endpoint first.
func (e Edge) Key() Edge {
	if e.V < e.U {
		return Edge{U: e.V, V: e.U}
	}
	return e
}

// Other returns the endpoint opposite to id.
func (e Edge) Other(id int) int {
	if e.U == id {
		return e.V
	}
	return e.U
}

// Graph is a mutable labeled undirected multigraph.
//
// The zero value is not usable - use New to create a valid Graph instance.
type Graph struct {
	vertices map[int]*Vertex
	edges    []Edge
	adj      map[int][]int // vertexID -> neighbor IDs, one entry per incident edge end
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		vertices: make(map[int]*Vertex),
		adj:      make(map[int][]int),
	}
}

// AddVertex adds a vertex with the given identifier and label.
// Returns ErrInvalidVertexID for negative identifiers and ErrDuplicateVertex
// if the identifier is already in use.
func (g *Graph) AddVertex(id int, label string) error {
	return g.addVertex(Vertex{ID: id, Label: label})
}

// AddVertexWithMeta is AddVertex with attached metadata. The metadata map is
// copied.
func (g *Graph) AddVertexWithMeta(id int, label string, meta Metadata) error {
	return g.addVertex(Vertex{ID: id, Label: label, Meta: maps.Clone(meta)})
}

func (g *Graph) addVertex(v Vertex) error {
	if v.ID < 0 {
		return ErrInvalidVertexID
	}
	if _, exists := g.vertices[v.ID]; exists {
		return ErrDuplicateVertex
	}
	if v.Meta == nil {
		v.Meta = Metadata{}
	}
	g.vertices[v.ID] = &v
	return nil
}

// AddEdge adds an undirected edge between two existing vertices.
// Returns ErrUnknownVertex if either endpoint is missing. Parallel edges and
// self-loops are accepted as-is.
func (g *Graph) AddEdge(u, v int) error {
	if _, ok := g.vertices[u]; !ok {
		return ErrUnknownVertex
	}
	if _, ok := g.vertices[v]; !ok {
		return ErrUnknownVertex
	}
	g.edges = append(g.edges, Edge{U: u, V: v})
	g.adj[u] = append(g.adj[u], v)
	g.adj[v] = append(g.adj[v], u)
	return nil
}

// RemoveVertex deletes a vertex and every edge incident to it.
// Returns ErrUnknownVertex if the vertex does not exist.
//
// This is an O(E) operation as the edge list is compacted in place.
func (g *Graph) RemoveVertex(id int) error {
	if _, ok := g.vertices[id]; !ok {
		return ErrUnknownVertex
	}
	for _, n := range g.adj[id] {
		if n == id {
			continue
		}
		g.adj[n] = slices.DeleteFunc(g.adj[n], func(x int) bool { return x == id })
	}
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.U == id || e.V == id })
	delete(g.adj, id)
	delete(g.vertices, id)
	return nil
}

// RemoveEdge removes one edge between u and v if it exists.
// No error is returned if the edge does not exist. If parallel edges exist,
// only the first is removed.
func (g *Graph) RemoveEdge(u, v int) {
	want := Edge{U: u, V: v}.Key()
	i := slices.IndexFunc(g.edges, func(e Edge) bool { return e.Key() == want })
	if i < 0 {
		return
	}
	g.edges = slices.Delete(g.edges, i, i+1)
	g.adj[u] = removeOne(g.adj[u], v)
	g.adj[v] = removeOne(g.adj[v], u)
}

func removeOne(s []int, x int) []int {
	if i := slices.Index(s, x); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// Vertex returns the vertex with the given identifier and true, or nil and
// false if not found. The returned pointer refers to the vertex in the graph,
// so label changes affect the graph.
func (g *Graph) Vertex(id int) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

// HasVertex reports whether a vertex with the given identifier exists.
func (g *Graph) HasVertex(id int) bool {
	_, ok := g.vertices[id]
	return ok
}

// Label returns the label of a vertex, or "" and false if it does not exist.
func (g *Graph) Label(id int) (string, bool) {
	v, ok := g.vertices[id]
	if !ok {
		return "", false
	}
	return v.Label, true
}

// IDs returns all vertex identifiers in ascending order.
func (g *Graph) IDs() []int {
	return slices.Sorted(maps.Keys(g.vertices))
}

// Vertices returns all vertices ordered by identifier.
func (g *Graph) Vertices() []*Vertex {
	ids := g.IDs()
	out := make([]*Vertex, len(ids))
	for i, id := range ids {
		out[i] = g.vertices[id]
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.vertices) }

// EdgeCount returns the number of edges, counting parallel edges separately.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Degree returns the number of edge ends at the vertex. A self-loop counts
// twice. Returns 0 if the vertex doesn't exist.
func (g *Graph) Degree(id int) int { return len(g.adj[id]) }

// Neighbors returns the distinct vertices adjacent to id in ascending order.
// A vertex with a self-loop is its own neighbor.
func (g *Graph) Neighbors(id int) []int {
	out := slices.Clone(g.adj[id])
	slices.Sort(out)
	return slices.Compact(out)
}

// MaxID returns the largest vertex identifier, or -1 for an empty graph.
func (g *Graph) MaxID() int {
	maxID := -1
	for id := range g.vertices {
		maxID = max(maxID, id)
	}
	return maxID
}

// IsContiguous reports whether the identifiers are exactly 0..n-1.
// An empty graph is contiguous.
func (g *Graph) IsContiguous() bool {
	return g.MaxID() == len(g.vertices)-1
}

// Clone returns a deep copy of the graph. Vertex metadata maps are copied
// shallowly.
func (g *Graph) Clone() *Graph {
	c := New()
	for id, v := range g.vertices {
		c.vertices[id] = &Vertex{ID: v.ID, Label: v.Label, Meta: maps.Clone(v.Meta)}
	}
	c.edges = slices.Clone(g.edges)
	for id, ns := range g.adj {
		c.adj[id] = slices.Clone(ns)
	}
	return c
}

// Equal reports whether two graphs have the same identifiers, the same label
// on every identifier and the same edge multiset. Edge order, endpoint order
// and metadata are ignored.
func (g *Graph) Equal(o *Graph) bool {
	if g.VertexCount() != o.VertexCount() || g.EdgeCount() != o.EdgeCount() {
		return false
	}
	for id, v := range g.vertices {
		ov, ok := o.vertices[id]
		if !ok || ov.Label != v.Label {
			return false
		}
	}
	return slices.Equal(sortedKeys(g.edges), sortedKeys(o.edges))
}

func sortedKeys(edges []Edge) []Edge {
	keys := make([]Edge, len(edges))
	for i, e := range edges {
		keys[i] = e.Key()
	}
	slices.SortFunc(keys, func(a, b Edge) int {
		if a.U != b.U {
			return a.U - b.U
		}
		return a.V - b.V
	})
	return keys
}

// Validate checks that every edge references existing vertices and that the
// adjacency index agrees with the edge list.
func (g *Graph) Validate() error {
	degrees := make(map[int]int, len(g.vertices))
	for _, e := range g.edges {
		if !g.HasVertex(e.U) || !g.HasVertex(e.V) {
			return ErrInvalidEdgeEndpoint
		}
		degrees[e.U]++
		degrees[e.V]++
	}
	for id, ns := range g.adj {
		if !g.HasVertex(id) || len(ns) != degrees[id] {
			return ErrInvalidEdgeEndpoint
		}
	}
	return nil
}
