// Package stats computes structural statistics of a labeled graph.
//
// [Compute] reports vertex and edge counts, the number of connected
// components, the average degree overall and per label, and the average
// component size. Every average is an integer floor division, matching the
// reports the rewriting tool has always printed.
//
// [Statistics] marshals to a JSON object whose keys always appear in the
// same order:
//
//	vertices, edges, components, avg_degree, avg_degree_by_label, avg_component_size
//
// Labels inside avg_degree_by_label are sorted. [Statistics.Entries] exposes
// the same ordered view for table output.
package stats
