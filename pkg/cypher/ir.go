// Package cypher compiles a small Cypher subset into the intermediate
// representation the Query Planner (package planner) consumes: dense
// query-node and query-edge lists, per-node substring filters, and the
// extra constraints (temporal ordering, variable-length "star" edges) a
// plain query CSR cannot express on its own.
//
// Parsing here is deliberately regex- and scanner-driven rather than a full
// grammar, mirroring how NornicDB's own pattern_parser.go and
// shortest_path.go read Cypher: find the syntactic landmark (a clause
// keyword, a bracket pair), slice the substring between delimiters, and
// recurse. A query this package cannot parse returns an error wrapping ErrParse,
// which callers turn into "zero matches" rather than aborting (§4.3).
package cypher

import "math"

// TimestampUnordered is the default QueryEdge.Timestamp value meaning "no
// ordering constraint was specified for this edge".
const TimestampUnordered = math.MaxUint32

// MaxQueryNodes is the cap imposed by matched_bits being 32 bits wide
// (§3.1, §6).
const MaxQueryNodes = 32

// QueryNode is one pattern-matched vertex.
type QueryNode struct {
	ID uint32
	// Name is the Cypher variable bound to this node, e.g. "a" in (a:Foo).
	// Anonymous nodes still get a compiler-assigned dense ID but have an
	// empty Name.
	Name string
	// Label is the label-mask spec string (§4.2 syntax: "", "any",
	// "~X", or "A;B;~C"). Empty means "no label constraint" (same as
	// "any").
	Label string
	// Filter is the optional substring/regex constraint on this node's
	// name attribute (§3.6's NodeFilter), or nil.
	Filter *NodeFilter
}

// NodeFilter restricts a query node to data nodes whose "name" attribute
// matches Pattern under ECMAScript regex semantics (§3.6, §4.5.1).
type NodeFilter struct {
	NodeID  uint32
	Pattern string
}

// StarSpec marks a QueryEdge as a variable-length "*" edge, handled by the
// Variable-Length Path Matcher (C7) rather than folded into the plain
// query CSR.
type StarSpec struct {
	// Shortest selects the shortestPath() semantics (default); false
	// selects allShortestPaths()/all-paths mode (§4.7).
	Shortest bool
	// LabelMask restricts which edge labels the star may traverse; ""
	// means any label.
	LabelMask string
}

// QueryEdge is one pattern-matched relationship between two query nodes.
type QueryEdge struct {
	Src, Dst uint32
	// Label is the edge-label mask spec (exact name, "ANY", or a
	// semicolon set); see GetEdgeLabelMask.
	Label string
	// Timestamp defaults to TimestampUnordered; compiled WHERE a.time <
	// b.time clauses assign small distinct values to enforce relative
	// order (§4.3, §4.5.2).
	Timestamp uint32
	// Star is non-nil for "*"-edges; such edges are excluded from the
	// plain query CSR and instead routed to package varpath.
	Star *StarSpec
}

// Query is the full compiler output: §4.3's (QueryNode[], QueryEdge[],
// per-node-filter[]), with filters folded into QueryNode.Filter for
// convenience.
type Query struct {
	Nodes []QueryNode
	Edges []QueryEdge
}
