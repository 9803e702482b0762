// Package graph implements the Attributed Graph (C2): a thin wrapper over
// package csr that adds human-readable label and node-identifier mappings,
// typed columnar node/edge attributes, and the label-mask parsing and
// match predicate the query engine's matcher stages consult.
//
// Attribute columns are immutable after ingest and are read only when
// formatting results for a caller — the matcher itself never looks at them,
// only at label bits and the topology in package csr.
package graph
