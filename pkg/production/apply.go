package production

import (
	"fmt"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	"github.com/matzehuels/graphprod/pkg/stats"
)

// Dangling is a neighbor of the replaced vertex together with the outcome of
// its reconnection.
type Dangling struct {
	Neighbor    int    // Host identifier of the neighbor
	Label       string // Neighbor's label
	Destination string // Embedding image of Label
	// AttachedTo is the identifier the neighbor was reconnected to, or -1 if
	// no vertex carries Destination and the edge was dropped.
	AttachedTo int
	// InReplacement reports whether AttachedTo belongs to the inserted
	// replacement rather than the pre-existing host.
	InReplacement bool
}

// Dropped reports whether the dangling edge was dropped.
func (d Dangling) Dropped() bool { return d.AttachedTo < 0 }

// Result describes a successful application.
type Result struct {
	Stats    stats.Statistics
	Target   int        // Identifier of the replaced vertex; now the anchor
	Inserted []int      // Host identifiers of the replacement's vertices, ascending
	Dangling []Dangling // One entry per distinct former neighbor, ascending by Neighbor
}

// Reconnected returns how many dangling edges were reattached.
func (r *Result) Reconnected() int {
	n := 0
	for _, d := range r.Dangling {
		if !d.Dropped() {
			n++
		}
	}
	return n
}

// Dropped returns how many dangling edges had no destination.
func (r *Result) Dropped() int { return len(r.Dangling) - r.Reconnected() }

// Apply rewrites host in place with the given production parts and returns
// the statistics of the result. See [Rule.Apply].
func Apply(host *graph.Graph, target string, replacement *graph.Graph, embedding map[string]string) (*Result, error) {
	r := Rule{Target: target, Replacement: replacement, Embedding: embedding}
	return r.Apply(host)
}

// Apply replaces the host vertex labeled r.Target with r.Replacement and
// reconnects its former neighbors through r.Embedding.
//
// On error the host is unchanged. The returned error carries one of the codes
// LABEL_NOT_FOUND, UNMAPPED_LABEL or INVALID_RULE.
func (r *Rule) Apply(host *graph.Graph) (*Result, error) {
	if host == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "host graph is nil")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	targetID, ok := host.IndexOf(r.Target)
	if !ok {
		return nil, errors.New(errors.ErrCodeLabelNotFound, "label %q not found in host", r.Target)
	}

	// Snapshot neighbors before the target and its edges disappear.
	var dangling []Dangling
	for _, n := range host.Neighbors(targetID) {
		if n == targetID {
			continue
		}
		label, _ := host.Label(n)
		dest, mapped := r.Embedding[label]
		if !mapped {
			return nil, errors.New(errors.ErrCodeUnmappedLabel,
				"neighbor %d of %q has label %q with no embedding entry", n, r.Target, label)
		}
		dangling = append(dangling, Dangling{Neighbor: n, Label: label, Destination: dest, AttachedTo: -1})
	}

	// Shift above every live identifier; for a contiguous host this is |host|-1.
	offset := max(host.VertexCount()-1, host.MaxID())
	rhs, err := graph.Remap(r.Replacement, offset, targetID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRule, err, "remap replacement")
	}

	if err := host.RemoveVertex(targetID); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "remove vertex %d", targetID)
	}
	if err := union(host, rhs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "merge replacement")
	}

	for i := range dangling {
		d := &dangling[i]
		dest, inRHS := rhs.IndexOf(d.Destination)
		if !inRHS {
			dest, ok = host.IndexOf(d.Destination)
			if !ok {
				continue
			}
		}
		if err := host.AddEdge(d.Neighbor, dest); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "reconnect %d--%d", d.Neighbor, dest)
		}
		d.AttachedTo = dest
		d.InReplacement = inRHS
	}

	s, err := stats.Compute(host)
	if err != nil {
		return nil, err
	}
	return &Result{
		Stats:    s,
		Target:   targetID,
		Inserted: rhs.IDs(),
		Dangling: dangling,
	}, nil
}

// union copies the vertices and edges of src into dst. Identifiers must not
// collide.
func union(dst, src *graph.Graph) error {
	for _, v := range src.Vertices() {
		if err := dst.AddVertexWithMeta(v.ID, v.Label, v.Meta); err != nil {
			return fmt.Errorf("vertex %d: %w", v.ID, err)
		}
	}
	for _, e := range src.Edges() {
		if err := dst.AddEdge(e.U, e.V); err != nil {
			return fmt.Errorf("edge %d--%d: %w", e.U, e.V, err)
		}
	}
	return nil
}
