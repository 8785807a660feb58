package stats

import (
	"slices"

	"github.com/matzehuels/graphprod/pkg/graph"
)

// Components partitions the vertices of g into connected components.
// Each component is sorted ascending and components are ordered by their
// smallest vertex. Runs in O(V + E α(V)).
func Components(g *graph.Graph) [][]int {
	ids := g.IDs()
	uf := newUnionFind(ids)
	for _, e := range g.Edges() {
		uf.union(e.U, e.V)
	}

	groups := make(map[int][]int)
	var roots []int
	for _, id := range ids {
		r := uf.find(id)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], id)
	}

	out := make([][]int, len(roots))
	for i, r := range roots {
		out[i] = groups[r]
	}
	slices.SortFunc(out, func(a, b []int) int { return a[0] - b[0] })
	return out
}

type unionFind struct {
	parent map[int]int
	rank   map[int]int
}

func newUnionFind(ids []int) *unionFind {
	uf := &unionFind{
		parent: make(map[int]int, len(ids)),
		rank:   make(map[int]int, len(ids)),
	}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
