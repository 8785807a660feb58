package graph

// IndexOf returns the identifier of a vertex carrying label.
// When several vertices share the label, the smallest identifier wins, so
// the result is deterministic regardless of insertion history.
// Returns -1 and false if no vertex carries the label.
func (g *Graph) IndexOf(label string) (int, bool) {
	found := -1
	for id, v := range g.vertices {
		if v.Label == label && (found < 0 || id < found) {
			found = id
		}
	}
	return found, found >= 0
}

// CountLabel returns how many vertices carry label.
func (g *Graph) CountLabel(label string) int {
	n := 0
	for _, v := range g.vertices {
		if v.Label == label {
			n++
		}
	}
	return n
}

// Labels returns the distinct labels present in the graph, ordered by the
// smallest identifier carrying each one.
func (g *Graph) Labels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range g.Vertices() {
		if !seen[v.Label] {
			seen[v.Label] = true
			out = append(out, v.Label)
		}
	}
	return out
}
