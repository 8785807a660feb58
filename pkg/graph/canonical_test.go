package graph

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	r := Raw{
		Nodes: []RawNode{
			{Key: "n7", Label: "X"},
			{Key: "alpha", Label: "b"},
			{Key: "q"},
		},
		Edges: []RawEdge{
			{From: "n7", To: "alpha"},
			{From: "q", To: "n7"},
		},
	}

	g, err := Canonicalize(r)
	if err != nil {
		t.Fatalf("Canonicalize() = %v", err)
	}

	want := New()
	_ = want.AddVertex(0, "X")
	_ = want.AddVertex(1, "b")
	_ = want.AddVertex(2, "q") // key doubles as label
	_ = want.AddEdge(0, 1)
	_ = want.AddEdge(2, 0)

	if !g.Equal(want) {
		t.Errorf("Canonicalize() vertices = %v", g.Vertices())
	}
	if !g.IsContiguous() {
		t.Error("result should be contiguous")
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	g := path("a", "b", "c", "a")
	_ = g.AddEdge(3, 0)
	_ = g.AddEdge(1, 1)

	again, err := Canonicalize(g.Raw())
	if err != nil {
		t.Fatalf("Canonicalize() = %v", err)
	}
	if !again.Equal(g) {
		t.Errorf("canonicalizing a canonical graph changed it: %v", again.Vertices())
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want error
	}{
		{
			name: "duplicate key",
			raw:  Raw{Nodes: []RawNode{{Key: "a"}, {Key: "a"}}},
			want: ErrDuplicateVertex,
		},
		{
			name: "unknown edge endpoint",
			raw: Raw{
				Nodes: []RawNode{{Key: "a"}},
				Edges: []RawEdge{{From: "a", To: "b"}},
			},
			want: ErrUnknownVertex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Canonicalize(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("Canonicalize() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCanonicalize_PreservesMeta(t *testing.T) {
	r := Raw{Nodes: []RawNode{{Key: "a", Label: "A", Meta: Metadata{"color": "red"}}}}
	g, err := Canonicalize(r)
	if err != nil {
		t.Fatalf("Canonicalize() = %v", err)
	}
	v, _ := g.Vertex(0)
	if v.Meta["color"] != "red" {
		t.Errorf("Meta = %v, want color=red", v.Meta)
	}
}
