package io

import (
	"os"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
)

// defaultLabel is Graphviz's placeholder for "use the node name".
const defaultLabel = `\N`

// ReadDOT parses a Graphviz DOT description into a raw graph.
// Nodes appear in Graphviz's node order, which follows declaration order.
// Directed edges are read as undirected.
func ReadDOT(data []byte) (graph.Raw, error) {
	g, err := graphviz.ParseBytes(data)
	if err != nil {
		return graph.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var raw graph.Raw
	n, err := g.FirstNode()
	for n != nil && err == nil {
		name, nerr := n.Name()
		if nerr != nil {
			return graph.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, nerr, "read node name")
		}
		label := n.GetStr("label")
		if label == defaultLabel {
			label = ""
		}
		raw.Nodes = append(raw.Nodes, graph.RawNode{Key: name, Label: label})

		e, eerr := g.FirstOut(n)
		for e != nil && eerr == nil {
			head, herr := e.Head()
			if herr != nil {
				return graph.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, herr, "read edge of %s", name)
			}
			to, herr := head.Name()
			if herr != nil {
				return graph.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, herr, "read edge of %s", name)
			}
			raw.Edges = append(raw.Edges, graph.RawEdge{From: name, To: to})
			e, eerr = g.NextOut(e)
		}
		if eerr != nil {
			return graph.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, eerr, "iterate edges of %s", name)
		}

		n, err = g.NextNode(n)
	}
	if err != nil {
		return graph.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "iterate nodes")
	}
	return raw, nil
}

// ImportDOT reads a DOT file at path.
func ImportDOT(path string) (graph.Raw, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return graph.Raw{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return graph.Raw{}, err
	}
	return ReadDOT(data)
}
