// Package csr implements the immutable compressed-sparse-row topology that
// backs the query engine's data graph.
//
// A CSR holds outgoing adjacency (out_index/out_dst/out_edata) plus a
// mirrored incoming adjacency (in_index/in_src/in_edata) materialized once
// at construction time. Within each node, edges are sorted first by
// edge-label mask and then by destination, so an is-connected check for a
// given label reduces to a binary search over a contiguous sub-slice.
//
// Directedness. This package never assumes the graph is symmetric: in_*
// arrays are the true reverse adjacency, not a second copy of out_*. Callers
// that need undirected semantics must insert both directions of an edge
// themselves before construction.
//
// The topology is read-only after Build returns and is safe to share across
// goroutines; only the node and edge matched-bits words change after
// construction, through the atomic accessors in atomic.go.
package csr
