package graph

import (
	"fmt"
	"maps"
	"strconv"
)

// Raw is a graph with opaque vertex keys, as read from an external
// description. Node order is significant: [Canonicalize] assigns identifiers
// in this order.
type Raw struct {
	Nodes []RawNode
	Edges []RawEdge
}

// RawNode is a vertex of a [Raw] graph.
type RawNode struct {
	Key   string   // Opaque, unique within the raw graph
	Label string   // Empty means "use Key as the label"
	Meta  Metadata // Optional
}

// DisplayLabel returns the label if set, otherwise the key.
func (n RawNode) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Key
}

// RawEdge is an undirected edge between two raw keys.
type RawEdge struct {
	From string
	To   string
}

// Canonicalize builds a Graph whose identifiers are exactly 0..n-1, assigned
// in the order of r.Nodes. Labels and edges are preserved, with edges
// translated through the new assignment.
//
// Returns an error wrapping ErrDuplicateVertex if a key repeats, or
// ErrUnknownVertex if an edge references a key that has no node.
func Canonicalize(r Raw) (*Graph, error) {
	g := New()
	index := make(map[string]int, len(r.Nodes))
	for i, n := range r.Nodes {
		if _, dup := index[n.Key]; dup {
			return nil, fmt.Errorf("node %q: %w", n.Key, ErrDuplicateVertex)
		}
		index[n.Key] = i
		if err := g.AddVertexWithMeta(i, n.DisplayLabel(), n.Meta); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Key, err)
		}
	}
	for _, e := range r.Edges {
		u, okU := index[e.From]
		v, okV := index[e.To]
		if !okU || !okV {
			return nil, fmt.Errorf("edge %s--%s: %w", e.From, e.To, ErrUnknownVertex)
		}
		if err := g.AddEdge(u, v); err != nil {
			return nil, fmt.Errorf("edge %s--%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}

// Raw converts g back to a [Raw] graph keyed by the decimal identifiers,
// nodes in ascending identifier order. Canonicalizing the result of a
// contiguous graph yields an equal graph.
func (g *Graph) Raw() Raw {
	vs := g.Vertices()
	r := Raw{
		Nodes: make([]RawNode, len(vs)),
		Edges: make([]RawEdge, len(g.edges)),
	}
	for i, v := range vs {
		r.Nodes[i] = RawNode{Key: strconv.Itoa(v.ID), Label: v.Label, Meta: maps.Clone(v.Meta)}
	}
	for i, e := range g.edges {
		r.Edges[i] = RawEdge{From: strconv.Itoa(e.U), To: strconv.Itoa(e.V)}
	}
	return r
}
