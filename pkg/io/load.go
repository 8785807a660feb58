package io

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
)

// Supported input formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// FormatOf returns the input format implied by a file extension, or "" if
// the extension is not recognized.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".dot", ".gv":
		return FormatDOT
	default:
		return ""
	}
}

// Decode parses data in the given format into a raw graph.
func Decode(data []byte, format string) (graph.Raw, error) {
	switch format {
	case FormatJSON:
		return ReadRaw(bytes.NewReader(data))
	case FormatDOT:
		return ReadDOT(data)
	default:
		return graph.Raw{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph format %q", format)
	}
}

// Load reads a graph description file, choosing the decoder from the
// file extension (.json, .dot, .gv).
func Load(path string) (graph.Raw, error) {
	format := FormatOf(path)
	if format == "" {
		return graph.Raw{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported graph file %s (want .json, .dot or .gv)", path)
	}
	if format == FormatDOT {
		return ImportDOT(path)
	}
	f, err := openFile(path)
	if err != nil {
		return graph.Raw{}, err
	}
	defer f.Close()
	return ReadRaw(f)
}

// LoadCanonical loads a graph description and canonicalizes it.
func LoadCanonical(path string) (*graph.Graph, error) {
	raw, err := Load(path)
	if err != nil {
		return nil, err
	}
	g, err := graph.Canonicalize(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "canonicalize %s", path)
	}
	return g, nil
}
