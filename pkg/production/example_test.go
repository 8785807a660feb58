package production_test

import (
	"fmt"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
	"github.com/matzehuels/graphprod/pkg/production"
)

func ExampleApply() {
	host := graph.New()
	_ = host.AddVertex(0, "X")
	_ = host.AddVertex(1, "b")
	_ = host.AddEdge(0, 1)

	rhs := graph.New()
	_ = rhs.AddVertex(0, "Y")
	_ = rhs.AddVertex(1, "c")
	_ = rhs.AddEdge(0, 1)

	res, err := production.Apply(host, "X", rhs, map[string]string{"b": "c"})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("vertices:", res.Stats.Vertices)
	fmt.Println("edges:", res.Stats.Edges)
	fmt.Println("components:", res.Stats.Components)
	// Output:
	// vertices: 3
	// edges: 2
	// components: 1
}

func ExampleRule_Apply_unmapped() {
	host := graph.New()
	_ = host.AddVertex(0, "X")
	_ = host.AddVertex(1, "b")
	_ = host.AddEdge(0, 1)

	rhs := graph.New()
	_ = rhs.AddVertex(0, "Y")

	rule := production.Rule{Name: "P1", Target: "X", Replacement: rhs}
	_, err := rule.Apply(host)
	fmt.Println(errors.GetCode(err))
	fmt.Println(host.VertexCount(), host.EdgeCount())
	// Output:
	// UNMAPPED_LABEL
	// 2 1
}
