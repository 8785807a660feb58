// Package production applies graph productions to a host graph in place.
//
// A production ([Rule]) names a target label, a replacement graph whose
// vertex 0 is the anchor, and an embedding transformation mapping the label
// of each dangling neighbor to the label of its new attachment point.
//
// # Algorithm
//
// [Apply] resolves the target with [graph.Graph.IndexOf], snapshots its
// neighbors, remaps the replacement so that the anchor takes over the
// target's identifier and every other vertex lands above the host's
// identifier range, deletes the target, unions the replacement into the host,
// and finally reconnects each former neighbor. A reconnection destination is
// looked up in the freshly inserted replacement first and only then in the
// rest of the host; a neighbor whose destination label exists nowhere is
// dropped without error.
//
// # Failure Semantics
//
// Every precondition is checked before the host is touched, so a failed
// Apply never leaves a partially rewritten graph:
//
//   - LABEL_NOT_FOUND: the target label is absent from the host
//   - UNMAPPED_LABEL: a neighbor's label has no embedding entry
//   - INVALID_RULE: the replacement is empty or not contiguous from 0
//
// The replacement graph is read but never modified; callers may reuse it.
package production
