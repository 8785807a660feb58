package graph

import "maps"

// Remap returns a copy of g with shifted identifiers:
//
//   - vertex 0 (the anchor) becomes anchor
//   - every other vertex i becomes i + offset
//
// Edges are rewritten under the same mapping and labels are preserved. g must
// be contiguous from 0, otherwise ErrNotContiguous is returned; g itself is
// never modified.
//
// For offset >= anchor the result's identifiers are disjoint from [1, offset]
// except for anchor, so it can be unioned with any host whose identifiers
// are at most offset. An anchor in [offset+1, offset+|g|-1] would merge two
// vertices and yields ErrDuplicateVertex.
func Remap(g *Graph, offset, anchor int) (*Graph, error) {
	if !g.IsContiguous() {
		return nil, ErrNotContiguous
	}
	if anchor < 0 || offset < 0 {
		return nil, ErrInvalidVertexID
	}

	out := New()
	for id, v := range g.vertices {
		nv := &Vertex{ID: RemapID(id, offset, anchor), Label: v.Label, Meta: maps.Clone(v.Meta)}
		if _, dup := out.vertices[nv.ID]; dup {
			return nil, ErrDuplicateVertex
		}
		out.vertices[nv.ID] = nv
	}
	for _, e := range g.edges {
		u, v := RemapID(e.U, offset, anchor), RemapID(e.V, offset, anchor)
		out.edges = append(out.edges, Edge{U: u, V: v})
		out.adj[u] = append(out.adj[u], v)
		out.adj[v] = append(out.adj[v], u)
	}
	return out, nil
}

// RemapID applies the [Remap] identifier mapping to a single identifier.
func RemapID(id, offset, anchor int) int {
	if id == 0 {
		return anchor
	}
	return id + offset
}
