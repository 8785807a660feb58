package production

import (
	"maps"
	"slices"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
)

// Rule is a production: replace the vertex labeled Target with Replacement
// and reattach dangling edges according to Embedding.
type Rule struct {
	// Name identifies the rule in logs and reports. Optional.
	Name string
	// Target is the label of the host vertex to replace.
	Target string
	// Replacement is the right-hand side. Identifiers must be 0..n-1 and
	// vertex 0 is the anchor that inherits the target's identifier.
	Replacement *graph.Graph
	// Embedding maps a dangling neighbor's label to the label of the vertex
	// it must be reattached to.
	Embedding map[string]string
}

// Validate checks the rule's static shape. It does not look at any host.
func (r *Rule) Validate() error {
	if err := errors.ValidateLabel(r.Target); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRule, err, "rule %s: invalid target", r.displayName())
	}
	if r.Replacement == nil || r.Replacement.VertexCount() == 0 {
		return errors.New(errors.ErrCodeInvalidRule, "rule %s: replacement graph is empty", r.displayName())
	}
	if !r.Replacement.IsContiguous() {
		return errors.Wrap(errors.ErrCodeInvalidRule, graph.ErrNotContiguous,
			"rule %s: replacement must be canonical", r.displayName())
	}
	return nil
}

// EmbeddingKeys returns the embedding's source labels in ascending order.
func (r *Rule) EmbeddingKeys() []string {
	return slices.Sorted(maps.Keys(r.Embedding))
}

func (r *Rule) displayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Target
}
