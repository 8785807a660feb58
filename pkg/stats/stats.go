package stats

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"

	"github.com/matzehuels/graphprod/pkg/errors"
	"github.com/matzehuels/graphprod/pkg/graph"
)

// Stable metric keys, in output order.
const (
	KeyVertices         = "vertices"
	KeyEdges            = "edges"
	KeyComponents       = "components"
	KeyAvgDegree        = "avg_degree"
	KeyAvgDegreeByLabel = "avg_degree_by_label"
	KeyAvgComponentSize = "avg_component_size"
)

// Statistics holds aggregate metrics of one graph snapshot.
type Statistics struct {
	Vertices         int
	Edges            int
	Components       int
	AvgDegree        int            // floor(2E / V)
	AvgDegreeByLabel map[string]int // floor(sum of degrees / count), per label
	AvgComponentSize int            // floor(V / components)
}

// Entry is one metric in output order. Value is an int, or a map[string]int
// for the per-label breakdown.
type Entry struct {
	Key   string
	Value any
}

// Compute returns the statistics of g.
// Returns an EMPTY_GRAPH error for a graph with no vertices rather than
// dividing by zero.
func Compute(g *graph.Graph) (Statistics, error) {
	n := g.VertexCount()
	if n == 0 {
		return Statistics{}, errors.New(errors.ErrCodeEmptyGraph, "statistics requested on a graph with no vertices")
	}

	degreeSum := 0
	labelDegree := make(map[string]int)
	labelCount := make(map[string]int)
	for _, v := range g.Vertices() {
		d := g.Degree(v.ID)
		degreeSum += d
		labelDegree[v.Label] += d
		labelCount[v.Label]++
	}

	byLabel := make(map[string]int, len(labelCount))
	for label, count := range labelCount {
		byLabel[label] = labelDegree[label] / count
	}

	components := len(Components(g))
	return Statistics{
		Vertices:         n,
		Edges:            g.EdgeCount(),
		Components:       components,
		AvgDegree:        degreeSum / n,
		AvgDegreeByLabel: byLabel,
		AvgComponentSize: n / components,
	}, nil
}

// Entries returns the metrics as an ordered list.
func (s Statistics) Entries() []Entry {
	return []Entry{
		{KeyVertices, s.Vertices},
		{KeyEdges, s.Edges},
		{KeyComponents, s.Components},
		{KeyAvgDegree, s.AvgDegree},
		{KeyAvgDegreeByLabel, maps.Clone(s.AvgDegreeByLabel)},
		{KeyAvgComponentSize, s.AvgComponentSize},
	}
}

// SortedLabels returns the labels of the per-label breakdown in ascending order.
func (s Statistics) SortedLabels() []string {
	return slices.Sorted(maps.Keys(s.AvgDegreeByLabel))
}

// MarshalJSON encodes the statistics as an object with stable key order.
func (s Statistics) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(e.Key)
		buf.Write(key)
		buf.WriteByte(':')
		if e.Key == KeyAvgDegreeByLabel {
			writeLabelMap(&buf, s.AvgDegreeByLabel, s.SortedLabels())
			continue
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeLabelMap(buf *bytes.Buffer, m map[string]int, labels []string) {
	buf.WriteByte('{')
	for i, l := range labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(l)
		buf.Write(key)
		buf.WriteByte(':')
		val, _ := json.Marshal(m[l])
		buf.Write(val)
	}
	buf.WriteByte('}')
}

// UnmarshalJSON decodes the object written by MarshalJSON.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	var raw struct {
		Vertices         int            `json:"vertices"`
		Edges            int            `json:"edges"`
		Components       int            `json:"components"`
		AvgDegree        int            `json:"avg_degree"`
		AvgDegreeByLabel map[string]int `json:"avg_degree_by_label"`
		AvgComponentSize int            `json:"avg_component_size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Statistics(raw)
	return nil
}
