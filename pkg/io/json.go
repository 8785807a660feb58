package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
)

type document struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID    key            `json:"id"`
	Label string         `json:"label,omitempty"`
	Meta  graph.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From key `json:"from"`
	To   key `json:"to"`
}

// key is a node reference that may be written as a JSON number or string.
// Numbers are written back as numbers.
type key string

func (k *key) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = key(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*k = key(n.String())
	return nil
}

func (k key) MarshalJSON() ([]byte, error) {
	if n, err := strconv.Atoi(string(k)); err == nil && strconv.Itoa(n) == string(k) {
		return []byte(k), nil
	}
	return json.Marshal(string(k))
}

// ReadRaw decodes a JSON graph from r without interpreting node ids.
// Node order is preserved so that canonicalization is reproducible.
// ReadRaw does not close r.
func ReadRaw(r io.Reader) (graph.Raw, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return graph.Raw{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph JSON")
	}

	raw := graph.Raw{
		Nodes: make([]graph.RawNode, len(doc.Nodes)),
		Edges: make([]graph.RawEdge, len(doc.Edges)),
	}
	for i, n := range doc.Nodes {
		raw.Nodes[i] = graph.RawNode{Key: string(n.ID), Label: n.Label, Meta: n.Meta}
	}
	for i, e := range doc.Edges {
		raw.Edges[i] = graph.RawEdge{From: string(e.From), To: string(e.To)}
	}
	return raw, nil
}

// ReadGraph decodes a JSON graph from r keeping node ids as vertex
// identifiers. Every id must be a non-negative integer.
//
// Errors are wrapped with context describing which node or edge caused the
// problem and carry the INVALID_GRAPH code.
func ReadGraph(r io.Reader) (*graph.Graph, error) {
	raw, err := ReadRaw(r)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	for _, n := range raw.Nodes {
		id, err := strconv.Atoi(n.Key)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "node id %q is not an integer", n.Key)
		}
		if err := g.AddVertexWithMeta(id, n.Label, n.Meta); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "node %d", id)
		}
	}
	for _, e := range raw.Edges {
		u, errU := strconv.Atoi(e.From)
		v, errV := strconv.Atoi(e.To)
		if errU != nil || errV != nil {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "edge %s--%s has non-integer endpoint", e.From, e.To)
		}
		if err := g.AddEdge(u, v); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "edge %d--%d", u, v)
		}
	}
	return g, nil
}

// WriteGraph encodes g as indented JSON. Nodes are written in ascending
// identifier order and edges in insertion order, so the output is
// deterministic and re-readable with [ReadGraph].
func WriteGraph(g *graph.Graph, w io.Writer) error {
	vs := g.Vertices()
	es := g.Edges()
	doc := document{
		Nodes: make([]node, len(vs)),
		Edges: make([]edge, len(es)),
	}
	for i, v := range vs {
		n := node{ID: key(strconv.Itoa(v.ID)), Label: v.Label}
		if len(v.Meta) > 0 {
			n.Meta = v.Meta
		}
		doc.Nodes[i] = n
	}
	for i, e := range es {
		doc.Edges[i] = edge{From: key(strconv.Itoa(e.U)), To: key(strconv.Itoa(e.V))}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalGraph converts g to JSON bytes.
func MarshalGraph(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalGraph is ReadGraph over a byte slice.
func UnmarshalGraph(data []byte) (*graph.Graph, error) {
	return ReadGraph(bytes.NewReader(data))
}

// ExportGraph writes g to a JSON file at path.
// This is a convenience wrapper around [WriteGraph] for file-based output.
func ExportGraph(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

// ImportGraph reads a JSON file written by [ExportGraph].
func ImportGraph(path string) (*graph.Graph, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGraph(f)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
